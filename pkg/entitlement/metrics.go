package entitlement

import "time"

// Metrics defines the interface for tracking gate operations.
// All methods are optional - callers should gracefully handle nil metrics
// by substituting NoopMetrics.
type Metrics interface {
	// RecordWebhookEvent records a webhook event received from the billing
	// provider. status: "applied", "skipped_no_identity", "failed",
	// "ignored".
	RecordWebhookEvent(provider, eventType, status string)

	// RecordWebhookError records a webhook boundary error.
	// errorType: e.g. "auth_failed", "invalid_payload".
	RecordWebhookError(provider, errorType string)

	// RecordWebhookProcessingDuration records how long it took to process
	// a webhook end to end.
	RecordWebhookProcessingDuration(provider, eventType string, duration time.Duration)

	// RecordReconcile records one reconciliation attempt.
	RecordReconcile(intent, outcome string)

	// RecordReconcileDuration records how long one reconciliation took.
	RecordReconcileDuration(intent string, duration time.Duration)

	// RecordCommand records a user-invoked command.
	// status: "ok", "no_subscription", "error".
	RecordCommand(command, status string)

	// RecordAPICall records an outbound API call to the billing provider.
	RecordAPICall(provider, endpoint, status string)

	// RecordAPICallDuration records how long an outbound API call took.
	RecordAPICallDuration(provider, endpoint string, duration time.Duration)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _, _ string)                            {}
func (n *NoopMetrics) RecordWebhookError(_, _ string)                               {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_, _ string, _ time.Duration) {}
func (n *NoopMetrics) RecordReconcile(_, _ string)                                  {}
func (n *NoopMetrics) RecordReconcileDuration(_ string, _ time.Duration)            {}
func (n *NoopMetrics) RecordCommand(_, _ string)                                    {}
func (n *NoopMetrics) RecordAPICall(_, _, _ string)                                 {}
func (n *NoopMetrics) RecordAPICallDuration(_, _ string, _ time.Duration)           {}
