package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RoleService is the access-control surface the reconciler mutates. All
// three operations are remote calls; AddRole and RemoveRole must be
// idempotent (granting a held role or revoking an absent one succeeds).
type RoleService interface {
	// LookupMember verifies that memberID exists in the guild. Returns
	// ErrMemberNotFound when it does not.
	LookupMember(ctx context.Context, guildID, memberID string) error

	AddRole(ctx context.Context, guildID, memberID, roleID string) error
	RemoveRole(ctx context.Context, guildID, memberID, roleID string) error
}

// Config holds the reconciler's collaborators and fixed scope. Roles,
// GuildID and RoleID are required; Logger and Metrics default to no-ops.
type Config struct {
	Roles   RoleService
	GuildID string
	RoleID  string
	Logger  Logger
	Metrics Metrics
}

// Reconciler converges the role state of a single guild role toward the
// state implied by billing lifecycle events. It holds no local state:
// entitlement is re-derived from the remote role flag on every event, and
// the grant/revoke operations are individually idempotent.
//
// No ordering is assumed between events for the same identity; the last
// processed event wins. A Revoke reordered after a Grant (or vice versa)
// therefore changes the outcome - accepted, since the upstream delivery
// contract provides no sequencing to lean on.
type Reconciler struct {
	roles   RoleService
	guildID string
	roleID  string
	logger  Logger
	metrics Metrics
}

// NewReconciler validates the config and returns a reconciler.
func NewReconciler(cfg Config) (*Reconciler, error) {
	if cfg.Roles == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(cfg.GuildID) == "" || strings.TrimSpace(cfg.RoleID) == "" {
		return nil, ErrNotConfigured
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &NoopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}

	return &Reconciler{
		roles:   cfg.Roles,
		guildID: cfg.GuildID,
		roleID:  cfg.RoleID,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Reconcile applies a single classified event. identity is empty when
// resolution failed upstream, which yields StatusSkippedNoIdentity. Any
// provider failure during lookup or mutation is caught and reported in
// the outcome; Reconcile never panics and never returns a Go error.
func (r *Reconciler) Reconcile(ctx context.Context, intent Intent, identity string) Outcome {
	start := time.Now()
	outcome := r.reconcile(ctx, intent, identity)

	r.metrics.RecordReconcile(intent.String(), outcome.Status.String())
	r.metrics.RecordReconcileDuration(intent.String(), time.Since(start))

	switch outcome.Status {
	case StatusApplied:
		r.logger.Info("entitlement reconciled",
			Field{Key: "intent", Value: intent.String()},
			Field{Key: "identity", Value: identity},
		)
	case StatusSkippedNoIdentity:
		r.logger.Info("event dropped, no correlatable identity",
			Field{Key: "intent", Value: intent.String()},
		)
	case StatusFailed:
		r.logger.Error("reconciliation failed",
			Field{Key: "intent", Value: intent.String()},
			Field{Key: "identity", Value: identity},
			Field{Key: "reason", Value: outcome.Reason},
			Field{Key: "error", Value: outcome.Err},
		)
	}

	return outcome
}

func (r *Reconciler) reconcile(ctx context.Context, intent Intent, identity string) Outcome {
	if identity == "" {
		return skipped()
	}

	if err := r.roles.LookupMember(ctx, r.guildID, identity); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return failed(ReasonMemberNotFound, err)
		}
		return failed(ReasonMemberLookup, err)
	}

	switch intent {
	case IntentGrant:
		if err := r.roles.AddRole(ctx, r.guildID, identity, r.roleID); err != nil {
			return failed(ReasonRoleMutation, err)
		}
		return applied()
	case IntentRevoke:
		if err := r.roles.RemoveRole(ctx, r.guildID, identity, r.roleID); err != nil {
			return failed(ReasonRoleMutation, err)
		}
		return applied()
	default:
		// Ignore-intent events are filtered out before reconciliation;
		// reaching here is a programming error, contained like any other.
		return failed(ReasonUnknownIntent, nil)
	}
}
