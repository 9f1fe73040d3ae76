package entitlement

import "errors"

var (
	// ErrMemberNotFound is returned by RoleService implementations when the
	// identity does not resolve to a member of the configured guild (the
	// user left, or the identity is malformed).
	ErrMemberNotFound = errors.New("member not found in guild")

	// ErrNotConfigured is returned when a reconciler is constructed without
	// its required collaborators.
	ErrNotConfigured = errors.New("reconciler not configured")
)
