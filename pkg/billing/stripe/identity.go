package stripe

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/dbfutures/rolegate/pkg/billing"
)

// resolveIdentity traces a correlation handle back to the external
// identity embedded at checkout time. Returns billing.ErrIdentityNotFound
// when the handle is empty or no checkout session carries the reference -
// an expected outcome, not a failure. The lookup is read-only.
func (g *Gateway) resolveIdentity(ctx context.Context, c correlation) (string, error) {
	switch {
	case c.clientReferenceID != "":
		return c.clientReferenceID, nil

	case c.subscriptionID != "":
		params := &stripe.CheckoutSessionListParams{
			Subscription: stripe.String(c.subscriptionID),
		}
		return g.identityFromSessions(ctx, params)

	case c.paymentIntentID != "":
		params := &stripe.CheckoutSessionListParams{
			PaymentIntent: stripe.String(c.paymentIntentID),
		}
		return g.identityFromSessions(ctx, params)

	default:
		return "", billing.ErrIdentityNotFound
	}
}

// identityFromSessions lists the checkout sessions matching params
// (most-recent first) and returns the first embedded checkout reference.
func (g *Gateway) identityFromSessions(ctx context.Context, params *stripe.CheckoutSessionListParams) (string, error) {
	start := time.Now()
	params.Limit = stripe.Int64(identityLookupLimit)

	seen := 0
	for session, err := range g.client.V1CheckoutSessions.List(ctx, params) {
		if err != nil {
			g.metrics.RecordAPICall(providerName, "/checkout/sessions", "error")
			return "", fmt.Errorf("list checkout sessions: %w", err)
		}
		if session.ClientReferenceID != "" {
			g.metrics.RecordAPICall(providerName, "/checkout/sessions", "success")
			g.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(start))
			return session.ClientReferenceID, nil
		}
		seen++
		if seen >= identityLookupLimit {
			break
		}
	}

	g.metrics.RecordAPICall(providerName, "/checkout/sessions", "not_found")
	g.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(start))
	return "", billing.ErrIdentityNotFound
}
