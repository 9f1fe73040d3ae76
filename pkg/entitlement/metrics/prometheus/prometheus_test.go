package prommetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookEvent("stripe", "checkout.session.completed", "applied")
	metrics.RecordWebhookEvent("stripe", "checkout.session.completed", "applied")
	metrics.RecordWebhookError("stripe", "auth_failed")
	metrics.RecordReconcile("grant", "applied")
	metrics.RecordCommand("subscribe", "ok")
	metrics.RecordAPICall("stripe", "/checkout/sessions", "success")

	if got := testutil.ToFloat64(metrics.webhookEventsTotal.WithLabelValues("stripe", "checkout.session.completed", "applied")); got != 2 {
		t.Errorf("webhook events counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.webhookErrorsTotal.WithLabelValues("stripe", "auth_failed")); got != 1 {
		t.Errorf("webhook errors counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.reconcileTotal.WithLabelValues("grant", "applied")); got != 1 {
		t.Errorf("reconcile counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.commandsTotal.WithLabelValues("subscribe", "ok")); got != 1 {
		t.Errorf("commands counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.apiCallsTotal.WithLabelValues("stripe", "/checkout/sessions", "success")); got != 1 {
		t.Errorf("api calls counter = %v, want 1", got)
	}
}

func TestMetrics_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookProcessingDuration("stripe", "invoice.paid", 25*time.Millisecond)
	metrics.RecordReconcileDuration("revoke", 10*time.Millisecond)
	metrics.RecordAPICallDuration("stripe", "/subscriptions/{id}", 40*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	want := map[string]bool{
		"test_gate_webhook_processing_duration_seconds": false,
		"test_gate_reconcile_duration_seconds":          false,
		"test_gate_api_call_duration_seconds":           false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric family %s not gathered", name)
		}
	}
}
