package stripe

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/dbfutures/rolegate/pkg/billing"
)

func TestPaymentLink_EmbedsIdentity(t *testing.T) {
	gateway := newTestGateway(t, &fakeReconciler{})

	link := gateway.PaymentLink(testIdentity)

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if got := parsed.Query().Get("client_reference_id"); got != testIdentity {
		t.Errorf("client_reference_id = %q, want %q", got, testIdentity)
	}
	if !strings.HasPrefix(link, testPaymentLinkURL) {
		t.Errorf("link %q does not start with base URL %q", link, testPaymentLinkURL)
	}
}

func TestPaymentLink_RoundTrip(t *testing.T) {
	// The embedded reference must resolve back to the same identity
	// through the correlator's direct path.
	gateway := newTestGateway(t, &fakeReconciler{})

	link := gateway.PaymentLink("user 42/special")
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}

	identity, err := gateway.resolveIdentity(context.Background(), correlation{
		clientReferenceID: parsed.Query().Get("client_reference_id"),
	})
	if err != nil {
		t.Fatalf("resolveIdentity() error: %v", err)
	}
	if identity != "user 42/special" {
		t.Errorf("identity = %q, want %q", identity, "user 42/special")
	}
}

func TestCancelSubscription_Schedules(t *testing.T) {
	stub := newStubStripe(t, []stubSession{
		{ID: "cs_other", Object: "checkout.session", ClientReferenceID: "someone-else", Subscription: "sub_other"},
		{ID: "cs_mine", Object: "checkout.session", ClientReferenceID: testIdentity, Subscription: "sub_123"},
	})
	gateway := newStubbedGateway(t, stub, &fakeReconciler{})

	result, err := gateway.CancelSubscription(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("CancelSubscription() error: %v", err)
	}
	if result != billing.CancelScheduled {
		t.Errorf("result = %v, want %v", result, billing.CancelScheduled)
	}
	if len(stub.updatedSubs) != 1 || stub.updatedSubs[0] != "sub_123" {
		t.Fatalf("updated subscriptions = %v, want [sub_123]", stub.updatedSubs)
	}
	if !strings.Contains(stub.updateBodies[0], "cancel_at_period_end=true") {
		t.Errorf("update body %q missing cancel_at_period_end=true", stub.updateBodies[0])
	}
}

func TestCancelSubscription_NoActiveSubscription(t *testing.T) {
	stub := newStubStripe(t, []stubSession{
		// Session referencing the identity but without a subscription must
		// not count.
		{ID: "cs_1", Object: "checkout.session", ClientReferenceID: "u999"},
	})
	gateway := newStubbedGateway(t, stub, &fakeReconciler{})

	result, err := gateway.CancelSubscription(context.Background(), "u999")
	if err != nil {
		t.Fatalf("CancelSubscription() error: %v", err)
	}
	if result != billing.CancelNoActiveSubscription {
		t.Errorf("result = %v, want %v", result, billing.CancelNoActiveSubscription)
	}
	if len(stub.updatedSubs) != 0 {
		t.Errorf("subscription update called %d times, want 0", len(stub.updatedSubs))
	}
}

func TestCancelSubscription_ListError(t *testing.T) {
	stub := newStubStripe(t, nil)
	stub.failSessions = true
	gateway := newStubbedGateway(t, stub, &fakeReconciler{})

	if _, err := gateway.CancelSubscription(context.Background(), testIdentity); err == nil {
		t.Error("expected error when session listing fails")
	}
	if len(stub.updatedSubs) != 0 {
		t.Errorf("subscription update called %d times, want 0", len(stub.updatedSubs))
	}
}

func TestCancelSubscription_UpdateError(t *testing.T) {
	stub := newStubStripe(t, []stubSession{
		{ID: "cs_1", Object: "checkout.session", ClientReferenceID: testIdentity, Subscription: "sub_123"},
	})
	stub.failSubUpdate = true
	gateway := newStubbedGateway(t, stub, &fakeReconciler{})

	if _, err := gateway.CancelSubscription(context.Background(), testIdentity); err == nil {
		t.Error("expected error when subscription update fails")
	}
}
