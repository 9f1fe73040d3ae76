package stripe

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v83"
)

// stubSession is the minimal checkout-session shape the stub API serves.
type stubSession struct {
	ID                string `json:"id"`
	Object            string `json:"object"`
	ClientReferenceID string `json:"client_reference_id,omitempty"`
	Subscription      string `json:"subscription,omitempty"`
}

// stubStripe is an httptest server standing in for the Stripe API. It
// serves a fixed checkout-session list and records subscription updates.
type stubStripe struct {
	server *httptest.Server

	sessions []stubSession

	listQueries   []string
	updatedSubs   []string
	updateBodies  []string
	failSessions  bool
	failSubUpdate bool
}

func newStubStripe(t *testing.T, sessions []stubSession) *stubStripe {
	t.Helper()
	stub := &stubStripe{sessions: sessions}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		stub.listQueries = append(stub.listQueries, r.URL.RawQuery)
		if stub.failSessions {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error"}}`))
			return
		}
		resp := map[string]interface{}{
			"object":   "list",
			"url":      "/v1/checkout/sessions",
			"has_more": false,
			"data":     stub.sessions,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /v1/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		subID := r.URL.Path[len("/v1/subscriptions/"):]
		body, _ := io.ReadAll(r.Body)
		stub.updatedSubs = append(stub.updatedSubs, subID)
		stub.updateBodies = append(stub.updateBodies, string(body))
		if stub.failSubUpdate {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                   subID,
			"object":               "subscription",
			"status":               "active",
			"cancel_at_period_end": true,
		})
	})

	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

// client returns a Stripe client wired to the stub server.
func (s *stubStripe) client() *stripe.Client {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(s.server.URL),
		HTTPClient:    s.server.Client(),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return stripe.NewClient(testStripeAPIKey, stripe.WithBackends(&stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}))
}

// newStubbedGateway returns a gateway whose Stripe client points at stub.
func newStubbedGateway(t *testing.T, stub *stubStripe, rec Reconciler) *Gateway {
	t.Helper()
	gateway := newTestGateway(t, rec)
	gateway.client = stub.client()
	return gateway
}
