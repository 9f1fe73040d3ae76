// Package stripe implements the billing side of the gate against the
// Stripe API: webhook authentication, lifecycle event classification,
// identity correlation, and the user-facing subscribe/cancel operations.
package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/dbfutures/rolegate/pkg/billing"
	"github.com/dbfutures/rolegate/pkg/billing/internal"
	"github.com/dbfutures/rolegate/pkg/entitlement"
)

const (
	providerName = "stripe"

	webhookMaxBodyBytes      = 256 * 1024
	defaultRateLimitRequests = 100
	defaultRateLimitWindow   = time.Minute

	// identityLookupLimit bounds the indirect identity lookup: sessions are
	// listed most-recent first and only the head of the list is consulted.
	identityLookupLimit = 5

	// sessionScanLimit bounds the cancellation scan over the account's
	// checkout sessions.
	sessionScanLimit = 100
)

// Reconciler applies a classified intent to an identity's entitlement.
// The gateway never interprets the outcome beyond recording it: once an
// event is authenticated, its reconciliation result does not change the
// HTTP response.
type Reconciler interface {
	Reconcile(ctx context.Context, intent entitlement.Intent, identity string) entitlement.Outcome
}

// Config holds the gateway's credentials and collaborators. APIKey,
// WebhookSecret, PaymentLinkURL and Reconciler are required; Logger and
// Metrics default to no-ops.
type Config struct {
	// APIKey is the Stripe secret key for outbound API calls.
	APIKey string

	// WebhookSecret verifies inbound webhook signatures.
	WebhookSecret string

	// PaymentLinkURL is the base Stripe payment link; the identity is
	// appended as the client_reference_id query parameter.
	PaymentLinkURL string

	Reconciler Reconciler
	Logger     entitlement.Logger
	Metrics    entitlement.Metrics
}

// Gateway talks to Stripe. It holds no subscription state of its own:
// Stripe is the system of record, and every decision that needs
// subscription data queries it live. The gateway is therefore
// non-functional when the Stripe API is unreachable, even though webhook
// delivery may still succeed.
type Gateway struct {
	client         *stripe.Client
	webhookSecret  string
	paymentLinkURL string
	reconciler     Reconciler
	rateLimiter    *internal.RateLimiter
	logger         entitlement.Logger
	metrics        entitlement.Metrics
}

// NewGateway validates the config and returns a gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	paymentLinkURL := strings.TrimSpace(cfg.PaymentLinkURL)

	if apiKey == "" || webhookSecret == "" || paymentLinkURL == "" || cfg.Reconciler == nil {
		return nil, billing.ErrGatewayNotConfigured
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &entitlement.NoopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &entitlement.NoopMetrics{}
	}

	return &Gateway{
		client:         stripe.NewClient(apiKey),
		webhookSecret:  webhookSecret,
		paymentLinkURL: paymentLinkURL,
		reconciler:     cfg.Reconciler,
		rateLimiter:    internal.NewRateLimiter(defaultRateLimitRequests, defaultRateLimitWindow),
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Name returns the provider name.
func (g *Gateway) Name() string {
	return providerName
}

// WebhookHandler returns the HTTP handler for Stripe webhooks, wrapped
// with per-IP rate limiting.
func (g *Gateway) WebhookHandler() http.Handler {
	return g.rateLimiter.Middleware(http.HandlerFunc(g.handleWebhook))
}
