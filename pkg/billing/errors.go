// Package billing holds the provider-neutral vocabulary of the payment
// side: error sentinels and command results. The Stripe implementation
// lives in the stripe subpackage.
package billing

import "errors"

var (
	// ErrGatewayNotConfigured is returned when a gateway is constructed
	// without its required credentials or collaborators.
	ErrGatewayNotConfigured = errors.New("billing gateway not configured")

	// ErrIdentityNotFound is returned when no external identity can be
	// correlated to a billing object. This is an expected outcome for
	// events that never carried a checkout reference (e.g. test events),
	// not a failure.
	ErrIdentityNotFound = errors.New("no identity correlated to billing object")

	// ErrProviderAPIError is returned when the provider's API returns an
	// error.
	ErrProviderAPIError = errors.New("billing provider API error")
)
