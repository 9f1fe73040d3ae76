package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/dbfutures/rolegate/pkg/billing"
	"github.com/dbfutures/rolegate/pkg/billing/internal"
	"github.com/dbfutures/rolegate/pkg/entitlement"
)

// handleWebhook processes one inbound lifecycle event. The body is kept
// as raw bytes until the signature over it has been verified; a bad
// signature is the only thing that rejects the delivery. Once the event
// is authenticated, the response is 200 regardless of what reconciliation
// does - surfacing reconciliation failures as delivery failures would
// trigger provider-side redelivery storms for errors redelivery cannot
// fix.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	setSecurityHeaders(w)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := internal.ReadRawBody(w, r, webhookMaxBodyBytes)
	if err != nil {
		if errors.Is(err, internal.ErrPayloadTooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			g.metrics.RecordWebhookError(providerName, "payload_too_large")
		} else {
			http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
			g.metrics.RecordWebhookError(providerName, "invalid_payload")
		}
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	event, err := stripe.ConstructEvent(body, sig, g.webhookSecret)
	if err != nil {
		http.Error(w, fmt.Sprintf("webhook signature verification failed: %v", err), http.StatusBadRequest)
		g.metrics.RecordWebhookError(providerName, "auth_failed")
		g.logger.Warn("webhook signature verification failed",
			entitlement.Field{Key: "error", Value: err},
		)
		return
	}

	eventType := string(event.Type)
	status := g.processEvent(r.Context(), &event)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))

	g.metrics.RecordWebhookEvent(providerName, eventType, status)
	g.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(start))
}

// processEvent runs the classify → correlate → reconcile pipeline for an
// authenticated event and returns the outcome label for metrics. Failures
// are contained here: one event's failure never blocks the next delivery.
func (g *Gateway) processEvent(ctx context.Context, event *stripe.Event) string {
	intent := classify(event.Type)
	if intent == entitlement.IntentIgnore {
		g.logger.Debug("event ignored",
			entitlement.Field{Key: "event_type", Value: string(event.Type)},
		)
		return "ignored"
	}

	corr, err := extractCorrelation(event)
	if err != nil {
		g.logger.Warn("event payload not parseable",
			entitlement.Field{Key: "event_type", Value: string(event.Type)},
			entitlement.Field{Key: "error", Value: err},
		)
		g.metrics.RecordWebhookError(providerName, "invalid_payload")
		return "failed"
	}

	identity, err := g.resolveIdentity(ctx, corr)
	if err != nil && !errors.Is(err, billing.ErrIdentityNotFound) {
		// Lookup failed for provider-side reasons; the reconciler is not
		// consulted since the identity genuinely may exist.
		g.logger.Error("identity lookup failed",
			entitlement.Field{Key: "event_type", Value: string(event.Type)},
			entitlement.Field{Key: "error", Value: err},
		)
		return "failed"
	}

	outcome := g.reconciler.Reconcile(ctx, intent, identity)
	return outcome.Status.String()
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
