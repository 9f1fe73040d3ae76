// Package entitlement decides and applies the access state derived from
// billing lifecycle events: a classified intent plus a resolved identity
// becomes exactly one idempotent role grant or revoke.
package entitlement

// Intent is the classified meaning of a billing lifecycle event,
// independent of the raw payload shape. The set is closed: adding a new
// provider event kind means extending this enum and every switch over it.
type Intent int

const (
	// IntentIgnore marks events that carry no entitlement meaning.
	IntentIgnore Intent = iota

	// IntentGrant re-affirms paid access. Granting an already-held role is
	// a safe no-op, which is what closes the failed-payment → renewal
	// recovery path without any state tracking.
	IntentGrant

	// IntentRevoke removes access (refund, cancellation, failed renewal).
	IntentRevoke
)

func (i Intent) String() string {
	switch i {
	case IntentGrant:
		return "grant"
	case IntentRevoke:
		return "revoke"
	case IntentIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Status is the coarse result of reconciling one event.
type Status int

const (
	// StatusApplied means the role mutation was performed (or was already
	// in the target state - the two are indistinguishable and equivalent).
	StatusApplied Status = iota

	// StatusSkippedNoIdentity means the event carried no correlatable
	// identity. This is an expected outcome, not a failure: test events
	// and sessions without a checkout reference land here.
	StatusSkippedNoIdentity

	// StatusFailed means the mutation could not be performed for this
	// event. The failure is contained; subsequent events are unaffected.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusSkippedNoIdentity:
		return "skipped_no_identity"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure reasons attached to StatusFailed outcomes. Used as metric label
// values, so the set is small and fixed.
const (
	ReasonMemberNotFound = "member_not_found"
	ReasonMemberLookup   = "member_lookup_failed"
	ReasonRoleMutation   = "role_mutation_failed"
	ReasonUnknownIntent  = "unknown_intent"
)

// Outcome describes what reconciling a single event did. Err is only set
// for StatusFailed and is informational: reconciliation failures never
// propagate as errors because one event must not block the next.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

func applied() Outcome {
	return Outcome{Status: StatusApplied}
}

func skipped() Outcome {
	return Outcome{Status: StatusSkippedNoIdentity}
}

func failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}
