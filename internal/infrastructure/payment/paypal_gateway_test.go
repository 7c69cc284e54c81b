package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePayPal struct {
	tokenCalls   atomic.Int32
	orderStatus  string
	verifyResult string
	failWith     int
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		_ = json.NewEncoder(w).Encode(paypalTokenResponse{AccessToken: "tok", ExpiresIn: 3600})
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get(paypalRequestIDHeader))
		var body paypalCreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CAPTURE", body.Intent)
		assert.Equal(t, "1250.00", body.PurchaseUnits[0].Amount.Value)
		assert.Equal(t, "pay-1", body.PurchaseUnits[0].CustomID)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"ORDER-1","status":"PAYER_ACTION_REQUIRED","links":[{"rel":"payer-action","href":"https://paypal.test/approve/ORDER-1"}]}`)
	})
	mux.HandleFunc("GET /v2/checkout/orders/ORDER-1", func(w http.ResponseWriter, r *http.Request) {
		if f.orderStatus == "COMPLETED" {
			_, _ = io.WriteString(w, completedOrderJSON)
			return
		}
		_, _ = io.WriteString(w, `{"id":"ORDER-1","status":"`+f.orderStatus+`"}`)
	})
	mux.HandleFunc("POST /v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "capture-ORDER-1", r.Header.Get(paypalRequestIDHeader))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, completedOrderJSON)
	})
	mux.HandleFunc("POST /v2/payments/captures/CAP-1/refund", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"REF-1","status":"COMPLETED"}`)
	})
	mux.HandleFunc("POST /v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body paypalVerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WH-1", body.WebhookID)
		_ = json.NewEncoder(w).Encode(paypalVerifyResponse{VerificationStatus: f.verifyResult})
	})
	return mux
}

const completedOrderJSON = `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"custom_id":"pay-1",
	"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","create_time":"2025-03-01T12:00:00Z"}]}}]}`

func newTestPayPal(t *testing.T, f *fakePayPal, cfg config.PayPalConfig) *PayPalGateway {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.WebhookID = "WH-1"
	g, err := NewPayPalGateway(cfg, zap.NewNop(), WithPayPalBaseURL(srv.URL), WithPayPalHTTPClient(srv.Client()))
	require.NoError(t, err)
	return g
}

func TestNewPayPalGateway_Validation(t *testing.T) {
	_, err := NewPayPalGateway(config.PayPalConfig{}, nil)
	assert.Error(t, err)

	g, err := NewPayPalGateway(config.PayPalConfig{ClientID: "a", ClientSecret: "b", Sandbox: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, paypalSandboxURL, g.baseURL)
	assert.Equal(t, payment.ProviderPayPal, g.Provider())
}

func TestPayPalGateway_CreateIntent(t *testing.T) {
	f := &fakePayPal{}
	g := newTestPayPal(t, f, config.PayPalConfig{})

	resp, err := g.CreateIntent(context.Background(), &payment.CreateIntentRequest{
		Reference:      "pay-1",
		Amount:         decimal.NewFromInt(1250),
		Currency:       "usd",
		IdempotencyKey: "idem-1",
		ReturnURL:      "https://app.test/return",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", resp.ProviderPaymentID)
	assert.Equal(t, "https://paypal.test/approve/ORDER-1", resp.CheckoutURL)
	assert.Equal(t, payment.GatewayStatusPending, resp.Status)

	// token is cached across calls
	_, err = g.CreateIntent(context.Background(), &payment.CreateIntentRequest{
		Reference: "pay-1", Amount: decimal.NewFromInt(1250), Currency: "USD", IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestPayPalGateway_QueryCapturesApprovedOrder(t *testing.T) {
	f := &fakePayPal{orderStatus: "APPROVED"}
	g := newTestPayPal(t, f, config.PayPalConfig{})

	resp, err := g.Query(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, payment.GatewayStatusSucceeded, resp.Status)
	require.NotNil(t, resp.PaidAt)
	assert.True(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Equal(*resp.PaidAt))
}

func TestPayPalGateway_QueryPending(t *testing.T) {
	f := &fakePayPal{orderStatus: "PAYER_ACTION_REQUIRED"}
	g := newTestPayPal(t, f, config.PayPalConfig{})

	resp, err := g.Query(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, payment.GatewayStatusPending, resp.Status)
	assert.Nil(t, resp.PaidAt)
}

func TestPayPalGateway_Refund(t *testing.T) {
	f := &fakePayPal{orderStatus: "COMPLETED"}
	g := newTestPayPal(t, f, config.PayPalConfig{})

	resp, err := g.Refund(context.Background(), &payment.RefundRequest{
		ProviderPaymentID: "ORDER-1", Amount: decimal.NewFromInt(1250), Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "REF-1", resp.ProviderRefundID)
	assert.True(t, resp.Succeeded)
}

func TestPayPalGateway_Refund_NoCapture(t *testing.T) {
	f := &fakePayPal{orderStatus: "APPROVED"}
	g := newTestPayPal(t, f, config.PayPalConfig{})

	_, err := g.Refund(context.Background(), &payment.RefundRequest{ProviderPaymentID: "ORDER-1"})
	assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
}

func TestPayPalGateway_VerifyWebhook(t *testing.T) {
	headers := map[string]string{
		"Paypal-Transmission-Id":   "tx-1",
		"Paypal-Transmission-Sig":  "sig",
		"Paypal-Transmission-Time": "2025-03-01T12:00:00Z",
		"Paypal-Auth-Algo":         "SHA256withRSA",
		"Paypal-Cert-Url":          "https://api.paypal.com/cert",
	}
	body := []byte(`{"id":"WH-EV-1","event_type":"PAYMENT.CAPTURE.COMPLETED","create_time":"2025-03-01T12:00:00Z",
		"resource":{"id":"CAP-1","status":"COMPLETED","custom_id":"pay-1","supplementary_data":{"related_ids":{"order_id":"ORDER-1"}}}}`)

	t.Run("verified", func(t *testing.T) {
		g := newTestPayPal(t, &fakePayPal{verifyResult: "SUCCESS"}, config.PayPalConfig{})
		ev, err := g.VerifyWebhook(context.Background(), body, headers)
		require.NoError(t, err)
		assert.Equal(t, "ORDER-1", ev.ProviderPaymentID)
		assert.Equal(t, "pay-1", ev.Reference)
		assert.Equal(t, payment.GatewayStatusSucceeded, ev.Status)
	})

	t.Run("rejected", func(t *testing.T) {
		g := newTestPayPal(t, &fakePayPal{verifyResult: "FAILURE"}, config.PayPalConfig{})
		_, err := g.VerifyWebhook(context.Background(), body, headers)
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)
	})

	t.Run("missing headers", func(t *testing.T) {
		g := newTestPayPal(t, &fakePayPal{verifyResult: "SUCCESS"}, config.PayPalConfig{})
		_, err := g.VerifyWebhook(context.Background(), body, nil)
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)
	})
}

func TestPayPalGateway_CircuitBreakerOpens(t *testing.T) {
	f := &fakePayPal{failWith: http.StatusBadGateway}
	g := newTestPayPal(t, f, config.PayPalConfig{BreakerMaxFailures: 2, BreakerOpenTimeout: time.Minute})
	req := &payment.CreateIntentRequest{Reference: "pay-1", Amount: decimal.NewFromInt(1), Currency: "USD"}

	for i := 0; i < 2; i++ {
		_, err := g.CreateIntent(context.Background(), req)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, g.BreakerState())

	_, err := g.CreateIntent(context.Background(), req)
	assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestPayPalGateway_ClientErrorsDoNotTripBreaker(t *testing.T) {
	f := &fakePayPal{failWith: http.StatusUnprocessableEntity}
	g := newTestPayPal(t, f, config.PayPalConfig{BreakerMaxFailures: 1})
	req := &payment.CreateIntentRequest{Reference: "pay-1", Amount: decimal.NewFromInt(1), Currency: "USD"}

	for i := 0; i < 3; i++ {
		_, err := g.CreateIntent(context.Background(), req)
		assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
	}
	assert.Equal(t, gobreaker.StateClosed, g.BreakerState())
}

func TestRegistry(t *testing.T) {
	stripeGW, err := NewStripeGateway(config.StripeConfig{SecretKey: "sk_test_1"}, nil)
	require.NoError(t, err)
	r := NewRegistry(stripeGW)

	g, err := r.Get(payment.ProviderStripe)
	require.NoError(t, err)
	assert.Same(t, stripeGW, g)

	_, err = r.Get(payment.ProviderPayPal)
	assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	assert.Equal(t, []payment.Provider{payment.ProviderStripe}, r.Providers())

	empty, err := NewRegistryFromConfig(config.PaymentConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, empty.Providers())
}
