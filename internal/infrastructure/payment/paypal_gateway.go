package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	paypalLiveURL    = "https://api-m.paypal.com"
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"

	paypalRequestIDHeader = "PayPal-Request-Id"
	// tokenRefreshSkew renews the OAuth token before PayPal expires it
	tokenRefreshSkew = time.Minute
)

// paypalAPIError is a non-2xx response from PayPal
type paypalAPIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *paypalAPIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("paypal: HTTP %d %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("paypal: HTTP %d", e.StatusCode)
}

// clientError reports whether the request itself was rejected; those do not trip the breaker
func (e *paypalAPIError) clientError() bool {
	return e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// PayPalGateway implements payment.Gateway with the PayPal Orders v2 REST API.
// Every call goes through a circuit breaker; while it is open calls fail fast with ErrGatewayUnavailable.
type PayPalGateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	webhookID    string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]byte]
	logger       *zap.Logger

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// PayPalOption configures a PayPalGateway
type PayPalOption func(*PayPalGateway)

// WithPayPalBaseURL overrides the API host, used in tests
func WithPayPalBaseURL(u string) PayPalOption {
	return func(g *PayPalGateway) {
		g.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPayPalHTTPClient sets the HTTP client
func WithPayPalHTTPClient(c *http.Client) PayPalOption {
	return func(g *PayPalGateway) {
		g.httpClient = c
	}
}

// NewPayPalGateway creates a PayPal gateway
func NewPayPalGateway(cfg config.PayPalConfig, logger *zap.Logger, opts ...PayPalOption) (*PayPalGateway, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("paypal: client id and secret are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := paypalLiveURL
	if cfg.Sandbox {
		baseURL = paypalSandboxURL
	}

	g := &PayPalGateway{
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		webhookID:    cfg.WebhookID,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.breaker = newPayPalBreaker(cfg, logger)
	return g, nil
}

func newPayPalBreaker(cfg config.PayPalConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "paypal",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *paypalAPIError
			if errors.As(err, &apiErr) {
				return apiErr.clientError()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Payment gateway circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Provider returns paypal
func (g *PayPalGateway) Provider() payment.Provider {
	return payment.ProviderPayPal
}

// CreateIntent creates a CAPTURE order and returns the buyer approval link
func (g *PayPalGateway) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	body := paypalCreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.Reference,
			CustomID:    req.Reference,
			Description: truncate(req.Description, 127),
			Amount:      paypalMoney(req),
		}},
	}
	if req.ReturnURL != "" || req.CancelURL != "" {
		body.ApplicationContext = &paypalApplicationContext{
			ReturnURL:  req.ReturnURL,
			CancelURL:  req.CancelURL,
			UserAction: "PAY_NOW",
		}
	}

	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers[paypalRequestIDHeader] = req.IdempotencyKey
	}

	var order paypalOrder
	if err := g.call(ctx, http.MethodPost, "/v2/checkout/orders", body, headers, &order); err != nil {
		g.logger.Error("Failed to create PayPal order",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return nil, err
	}

	g.logger.Info("Created PayPal order",
		zap.String("reference", req.Reference),
		zap.String("order_id", order.ID))

	return &payment.CreateIntentResponse{
		ProviderPaymentID: order.ID,
		CheckoutURL:       order.link("approve", "payer-action"),
		Status:            mapPayPalOrder(&order),
	}, nil
}

// Query fetches the order and captures it once the buyer has approved
func (g *PayPalGateway) Query(ctx context.Context, providerPaymentID string) (*payment.QueryResponse, error) {
	order, err := g.getOrder(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}

	if order.Status == "APPROVED" {
		var captured paypalOrder
		headers := map[string]string{paypalRequestIDHeader: "capture-" + order.ID}
		path := "/v2/checkout/orders/" + url.PathEscape(order.ID) + "/capture"
		if err := g.call(ctx, http.MethodPost, path, struct{}{}, headers, &captured); err != nil {
			return nil, err
		}
		order = &captured
	}

	resp := &payment.QueryResponse{
		ProviderPaymentID: order.ID,
		Status:            mapPayPalOrder(order),
	}
	if c := order.completedCapture(); c != nil {
		if t, err := time.Parse(time.RFC3339, c.CreateTime); err == nil {
			t = t.UTC()
			resp.PaidAt = &t
		}
	}
	return resp, nil
}

// Refund refunds the order's completed capture
func (g *PayPalGateway) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	order, err := g.getOrder(ctx, req.ProviderPaymentID)
	if err != nil {
		return nil, err
	}
	capture := order.completedCapture()
	if capture == nil {
		return nil, fmt.Errorf("%w: paypal order %s has no completed capture", payment.ErrGatewayRequestFailed, order.ID)
	}

	body := paypalRefundRequest{NoteToPayer: truncate(req.Reason, 255)}
	if req.Amount.IsPositive() {
		body.Amount = &paypalAmount{
			CurrencyCode: strings.ToUpper(req.Currency),
			Value:        formatPayPalValue(req.Amount, req.Currency),
		}
	}

	var refund paypalRefund
	path := "/v2/payments/captures/" + url.PathEscape(capture.ID) + "/refund"
	if err := g.call(ctx, http.MethodPost, path, body, nil, &refund); err != nil {
		g.logger.Error("Failed to refund PayPal capture",
			zap.String("order_id", order.ID),
			zap.String("capture_id", capture.ID),
			zap.Error(err))
		return nil, err
	}

	return &payment.RefundResponse{
		ProviderRefundID: refund.ID,
		Succeeded:        refund.Status == "COMPLETED" || refund.Status == "PENDING",
	}, nil
}

// VerifyWebhook asks PayPal to verify the transmission signature, then normalises the event
func (g *PayPalGateway) VerifyWebhook(ctx context.Context, payload []byte, headers map[string]string) (*payment.WebhookEvent, error) {
	if g.webhookID == "" {
		return nil, fmt.Errorf("%w: paypal webhook id not configured", payment.ErrGatewayNotConfigured)
	}
	if !json.Valid(payload) {
		return nil, payment.ErrGatewayInvalidCallback
	}

	verify := paypalVerifyRequest{
		AuthAlgo:         headerValue(headers, "PAYPAL-AUTH-ALGO"),
		CertURL:          headerValue(headers, "PAYPAL-CERT-URL"),
		TransmissionID:   headerValue(headers, "PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  headerValue(headers, "PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: headerValue(headers, "PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        g.webhookID,
		WebhookEvent:     json.RawMessage(payload),
	}
	if verify.TransmissionID == "" || verify.TransmissionSig == "" {
		return nil, payment.ErrGatewayInvalidCallback
	}

	var result paypalVerifyResponse
	if err := g.call(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", verify, nil, &result); err != nil {
		return nil, err
	}
	if result.VerificationStatus != "SUCCESS" {
		g.logger.Warn("Rejected PayPal webhook",
			zap.String("transmission_id", verify.TransmissionID),
			zap.String("verification_status", result.VerificationStatus))
		return nil, payment.ErrGatewayInvalidCallback
	}

	var ev paypalWebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	return normalisePayPalEvent(&ev), nil
}

func normalisePayPalEvent(ev *paypalWebhookEvent) *payment.WebhookEvent {
	out := &payment.WebhookEvent{
		Provider: payment.ProviderPayPal,
		EventID:  ev.ID,
	}
	if t, err := time.Parse(time.RFC3339, ev.CreateTime); err == nil {
		out.OccurredAt = t.UTC()
	}

	res := &ev.Resource
	orderID := res.SupplementaryData.RelatedIDs.OrderID
	reference := res.CustomID

	switch ev.EventType {
	case "CHECKOUT.ORDER.APPROVED":
		// Approved orders still need a capture, which the sync performs
		orderID = res.ID
		if len(res.PurchaseUnits) > 0 {
			reference = res.PurchaseUnits[0].CustomID
		}
		out.Status = payment.GatewayStatusPending
	case "CHECKOUT.ORDER.VOIDED":
		orderID = res.ID
		out.Status = payment.GatewayStatusCanceled
	case "PAYMENT.CAPTURE.COMPLETED":
		out.Status = payment.GatewayStatusSucceeded
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		out.Status = payment.GatewayStatusFailed
	case "PAYMENT.CAPTURE.REFUNDED":
		out.Status = payment.GatewayStatusRefunded
	}

	out.ProviderPaymentID = orderID
	out.Reference = reference
	return out
}

func (g *PayPalGateway) getOrder(ctx context.Context, orderID string) (*paypalOrder, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: paypal order id is required", payment.ErrGatewayRequestFailed)
	}
	var order paypalOrder
	if err := g.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// call performs an authenticated JSON request through the circuit breaker
func (g *PayPalGateway) call(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("paypal: failed to marshal request: %w", err)
		}
	}

	raw, err := g.breaker.Execute(func() ([]byte, error) {
		token, err := g.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("paypal: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		data, err := g.send(req)
		var apiErr *paypalAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			g.resetToken()
		}
		return data, err
	})
	if err != nil {
		return g.translate(err)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
		}
	}
	return nil
}

func (g *PayPalGateway) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: paypal circuit open", payment.ErrGatewayUnavailable)
	}
	var apiErr *paypalAPIError
	if errors.As(err, &apiErr) {
		if apiErr.clientError() {
			return fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, apiErr)
		}
		return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, apiErr)
	}
	if errors.Is(err, payment.ErrGatewayUnavailable) || errors.Is(err, payment.ErrGatewayRequestFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
}

// accessToken returns a cached client-credentials token, fetching one when needed
func (g *PayPalGateway) accessToken(ctx context.Context) (string, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()

	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	form := url.Values{"grant_type": []string{"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to create token request: %w", err)
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := g.send(req)
	if err != nil {
		return "", err
	}
	var tok paypalTokenResponse
	if err := json.Unmarshal(data, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: paypal token response", payment.ErrGatewayInvalidResponse)
	}

	g.token = tok.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenRefreshSkew)
	return g.token, nil
}

func (g *PayPalGateway) resetToken() {
	g.tokenMu.Lock()
	g.token = ""
	g.tokenMu.Unlock()
}

func (g *PayPalGateway) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &paypalAPIError{StatusCode: resp.StatusCode}
		var body paypalErrorResponse
		if json.Unmarshal(data, &body) == nil {
			apiErr.Name = body.Name
			apiErr.Message = body.Message
		}
		return nil, apiErr
	}
	return data, nil
}

// BreakerState exposes the breaker state for health reporting
func (g *PayPalGateway) BreakerState() gobreaker.State {
	return g.breaker.State()
}

func paypalMoney(req *payment.CreateIntentRequest) *paypalAmount {
	return &paypalAmount{
		CurrencyCode: strings.ToUpper(req.Currency),
		Value:        formatPayPalValue(req.Amount, req.Currency),
	}
}

func formatPayPalValue(amount decimal.Decimal, currency string) string {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}

func mapPayPalOrder(o *paypalOrder) payment.GatewayStatus {
	switch o.Status {
	case "COMPLETED":
		for _, pu := range o.PurchaseUnits {
			if pu.Payments == nil {
				continue
			}
			for _, c := range pu.Payments.Captures {
				switch c.Status {
				case "REFUNDED":
					return payment.GatewayStatusRefunded
				case "DECLINED", "FAILED":
					return payment.GatewayStatusFailed
				}
			}
		}
		return payment.GatewayStatusSucceeded
	case "VOIDED":
		return payment.GatewayStatusCanceled
	default:
		return payment.GatewayStatusPending
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Ensure PayPalGateway implements payment.Gateway
var _ payment.Gateway = (*PayPalGateway)(nil)
