package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPGateway(Config{BaseURL: srv.URL, APIKey: "sk_test_123"})
}

func TestAuthorizeAndChargeSucceeded(t *testing.T) {
	var gotAuth string
	var gotBody ChargeRequest
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/charges", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(ChargeResult{Status: StatusSucceeded, Reference: "ch_1"})
	})

	result, err := gw.AuthorizeAndCharge(context.Background(), ChargeRequest{
		AmountCents:      5000,
		Currency:         "usd",
		PaymentMethodRef: "pm_visa",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.Equal(t, "ch_1", result.Reference)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, int64(5000), gotBody.AmountCents)
}

func TestAuthorizeAndChargeDeclinedIsNotAnError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(ChargeResult{Status: StatusFailed, Reason: "card_declined"})
	})

	result, err := gw.AuthorizeAndCharge(context.Background(), ChargeRequest{AmountCents: 5000, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "card_declined", result.Reason)
}

func TestAuthorizeAndChargeServerError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := gw.AuthorizeAndCharge(context.Background(), ChargeRequest{AmountCents: 5000, Currency: "usd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	hits := 0
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		_, err := gw.AuthorizeAndCharge(context.Background(), ChargeRequest{AmountCents: 100, Currency: "usd"})
		require.Error(t, err)
	}
	require.Equal(t, 3, hits)

	// Fourth call fails fast without reaching the server.
	_, err := gw.AuthorizeAndCharge(context.Background(), ChargeRequest{AmountCents: 100, Currency: "usd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 3, hits)
}

func TestCreateCheckoutSession(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		var req CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://hotel.example.com/api/reservations/payment/success?session_ref=abc", req.SuccessURL)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{
			Reference:   "cs_9",
			RedirectURL: "https://pay.example.com/cs_9",
			Status:      SessionOpen,
		})
	})

	session, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{
		AmountCents: 5000,
		Currency:    "usd",
		SuccessURL:  "https://hotel.example.com/api/reservations/payment/success?session_ref=abc",
		CancelURL:   "https://hotel.example.com/api/reservations/payment/cancel?session_ref=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_9", session.Reference)
	assert.Equal(t, "https://pay.example.com/cs_9", session.RedirectURL)
}

func TestCreateCheckoutSessionRejectsMissingReference(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CheckoutSession{RedirectURL: "https://pay.example.com/x"})
	})

	_, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{AmountCents: 5000, Currency: "usd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without reference")
}

func TestRetrieveSession(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_9", r.URL.Path)
		json.NewEncoder(w).Encode(CheckoutSession{Reference: "cs_9", Status: SessionComplete, PaymentRef: "pi_7"})
	})

	session, err := gw.RetrieveSession(context.Background(), "cs_9")
	require.NoError(t, err)
	assert.Equal(t, SessionComplete, session.Status)
	assert.Equal(t, "pi_7", session.PaymentRef)
}
