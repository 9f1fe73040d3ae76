package stripe

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/dbfutures/rolegate/pkg/billing"
	"github.com/dbfutures/rolegate/pkg/entitlement"
)

// PaymentLink returns the checkout URL for identity, with the identity
// embedded as the checkout reference so the completed-session event can
// be traced back to it. Pure construction, no provider call.
func (g *Gateway) PaymentLink(identity string) string {
	return g.paymentLinkURL + "?client_reference_id=" + url.QueryEscape(identity)
}

// CancelSubscription schedules end-of-period cancellation for the
// subscription linked to identity. The role is not revoked here: that
// happens when the provider later emits the subscription-deleted
// lifecycle event, keeping a single revocation code path.
//
// The result is meaningful only when the returned error is nil.
func (g *Gateway) CancelSubscription(ctx context.Context, identity string) (billing.CancelResult, error) {
	subID, err := g.findSubscriptionByIdentity(ctx, identity)
	if err != nil {
		return billing.CancelNoActiveSubscription, err
	}
	if subID == "" {
		return billing.CancelNoActiveSubscription, nil
	}

	start := time.Now()
	params := &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	if _, err := g.client.V1Subscriptions.Update(ctx, subID, params); err != nil {
		g.metrics.RecordAPICall(providerName, "/subscriptions/{id}", "error")
		return billing.CancelNoActiveSubscription, fmt.Errorf("schedule cancellation of %s: %w", subID, err)
	}
	g.metrics.RecordAPICall(providerName, "/subscriptions/{id}", "success")
	g.metrics.RecordAPICallDuration(providerName, "/subscriptions/{id}", time.Since(start))

	g.logger.Info("subscription cancellation scheduled",
		entitlement.Field{Key: "identity", Value: identity},
		entitlement.Field{Key: "subscription", Value: subID},
	)
	return billing.CancelScheduled, nil
}

// findSubscriptionByIdentity scans the account's recent checkout sessions
// (newest first, bounded) for one that carries identity as its checkout
// reference and has a subscription attached. Returns "" when none match.
func (g *Gateway) findSubscriptionByIdentity(ctx context.Context, identity string) (string, error) {
	start := time.Now()
	params := &stripe.CheckoutSessionListParams{}
	params.Limit = stripe.Int64(sessionScanLimit)

	seen := 0
	for session, err := range g.client.V1CheckoutSessions.List(ctx, params) {
		if err != nil {
			g.metrics.RecordAPICall(providerName, "/checkout/sessions", "error")
			return "", fmt.Errorf("list checkout sessions: %w", err)
		}
		if session.ClientReferenceID == identity && session.Subscription != nil {
			g.metrics.RecordAPICall(providerName, "/checkout/sessions", "success")
			g.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(start))
			return session.Subscription.ID, nil
		}
		seen++
		if seen >= sessionScanLimit {
			break
		}
	}

	g.metrics.RecordAPICall(providerName, "/checkout/sessions", "not_found")
	g.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(start))
	return "", nil
}
