package billing

// CancelResult is the outcome of a user-initiated cancellation request.
type CancelResult int

const (
	// CancelScheduled means the subscription was marked to cancel at the
	// end of the current billing period. The role itself is revoked later,
	// by the subscription-deleted lifecycle event, so there is a single
	// revocation code path.
	CancelScheduled CancelResult = iota

	// CancelNoActiveSubscription means no subscription is linked to the
	// requesting identity. Nothing was mutated.
	CancelNoActiveSubscription
)

func (r CancelResult) String() string {
	switch r {
	case CancelScheduled:
		return "scheduled"
	case CancelNoActiveSubscription:
		return "no_active_subscription"
	default:
		return "unknown"
	}
}
