package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"github.com/dbfutures/rolegate/pkg/entitlement"
)

// Event kinds with entitlement meaning. Stripe emits invoice.paid or
// invoice.payment_succeeded depending on account configuration; both mean
// the same thing here.
const (
	eventCheckoutCompleted       = "checkout.session.completed"
	eventInvoicePaid             = "invoice.paid"
	eventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	eventInvoicePaymentFailed    = "invoice.payment_failed"
	eventChargeRefunded          = "charge.refunded"
	eventSubscriptionDeleted     = "customer.subscription.deleted"
)

// classify maps an event kind to an intent. It depends on nothing but the
// kind, so the mapping is total and deterministic.
//
// A paid invoice maps to Grant rather than Ignore: a renewal must
// re-affirm the role, because a preceding failed-payment cycle may already
// have revoked it. The grant is idempotent, so re-affirming a held role
// costs nothing, and this closes the failed→paid recovery path without
// any state tracking.
func classify(kind stripe.EventType) entitlement.Intent {
	switch kind {
	case eventCheckoutCompleted, eventInvoicePaid, eventInvoicePaymentSucceeded:
		return entitlement.IntentGrant
	case eventChargeRefunded, eventSubscriptionDeleted, eventInvoicePaymentFailed:
		return entitlement.IntentRevoke
	default:
		return entitlement.IntentIgnore
	}
}

// correlation is the handle an event carries for tracing back to an
// external identity. At most one field is set; all empty means the event
// carried nothing correlatable.
type correlation struct {
	// clientReferenceID is the checkout reference embedded on the session
	// at subscription start - the direct path, no provider call needed.
	clientReferenceID string

	// subscriptionID and paymentIntentID require the indirect path: a
	// lookup of the checkout session that created them.
	subscriptionID  string
	paymentIntentID string
}

// extractCorrelation pulls the per-kind correlation handle out of the
// event payload. Kinds that classify as Ignore return an empty handle.
func extractCorrelation(event *stripe.Event) (correlation, error) {
	switch event.Type {
	case eventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return correlation{}, fmt.Errorf("unmarshal checkout session: %w", err)
		}
		return correlation{clientReferenceID: session.ClientReferenceID}, nil

	case eventInvoicePaid, eventInvoicePaymentSucceeded, eventInvoicePaymentFailed:
		subID, err := invoiceSubscriptionID(event.Data.Raw)
		if err != nil {
			return correlation{}, err
		}
		return correlation{subscriptionID: subID}, nil

	case eventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return correlation{}, fmt.Errorf("unmarshal charge: %w", err)
		}
		if charge.PaymentIntent == nil {
			return correlation{}, nil
		}
		return correlation{paymentIntentID: charge.PaymentIntent.ID}, nil

	default:
		return correlation{}, nil
	}
}

// invoiceSubscriptionID digs the subscription ID out of a raw invoice
// payload. The v83 Invoice struct does not expose the field directly, and
// Stripe serializes it as either an ID string or an expanded object -
// newer API versions additionally nest it under
// parent.subscription_details.
func invoiceSubscriptionID(raw json.RawMessage) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("unmarshal invoice: %w", err)
	}

	if id := subscriptionIDField(data["subscription"]); id != "" {
		return id, nil
	}

	if parent, ok := data["parent"].(map[string]interface{}); ok {
		if details, ok := parent["subscription_details"].(map[string]interface{}); ok {
			if id := subscriptionIDField(details["subscription"]); id != "" {
				return id, nil
			}
		}
	}

	return "", nil
}

func subscriptionIDField(v interface{}) string {
	switch sub := v.(type) {
	case string:
		return sub
	case map[string]interface{}:
		if id, ok := sub["id"].(string); ok {
			return id
		}
	}
	return ""
}
