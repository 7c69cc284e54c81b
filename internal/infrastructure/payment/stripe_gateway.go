package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	metadataPaymentID     = "payment_id"
)

// StripeGateway implements payment.Gateway with Stripe PaymentIntents
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// StripeOption configures a StripeGateway
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithStripeBackends overrides the HTTP backends, used in tests
func WithStripeBackends(b *stripe.Backends) StripeOption {
	return func(o *stripeOptions) {
		o.backends = b
	}
}

// NewStripeGateway creates a Stripe gateway
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, fmt.Errorf("stripe: secret key must start with sk_ or rk_")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &stripeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return &StripeGateway{
		api:           client.New(cfg.SecretKey, o.backends),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// Provider returns stripe
func (g *StripeGateway) Provider() payment.Provider {
	return payment.ProviderStripe
}

// CreateIntent opens a PaymentIntent confirmed client-side with the returned secret
func (g *StripeGateway) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(req.Amount, req.Currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.AddMetadata(metadataPaymentID, req.Reference)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe PaymentIntent",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return nil, g.wrapError("create payment intent", err)
	}

	g.logger.Info("Created Stripe PaymentIntent",
		zap.String("reference", req.Reference),
		zap.String("payment_intent_id", pi.ID))

	return &payment.CreateIntentResponse{
		ProviderPaymentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		Status:            mapStripeIntentStatus(pi.Status),
	}, nil
}

// Query fetches the PaymentIntent status
func (g *StripeGateway) Query(ctx context.Context, providerPaymentID string) (*payment.QueryResponse, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := g.api.PaymentIntents.Get(providerPaymentID, params)
	if err != nil {
		return nil, g.wrapError("get payment intent", err)
	}

	resp := &payment.QueryResponse{
		ProviderPaymentID: pi.ID,
		Status:            mapStripeIntentStatus(pi.Status),
	}
	if ch := pi.LatestCharge; ch != nil {
		if ch.Refunded {
			resp.Status = payment.GatewayStatusRefunded
		}
		if ch.Paid && ch.Created > 0 {
			paidAt := time.Unix(ch.Created, 0).UTC()
			resp.PaidAt = &paidAt
		}
	}
	return resp, nil
}

// Refund refunds a captured PaymentIntent
func (g *StripeGateway) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderPaymentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if req.Amount.IsPositive() {
		params.Amount = stripe.Int64(toMinorUnits(req.Amount, req.Currency))
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to refund Stripe PaymentIntent",
			zap.String("payment_intent_id", req.ProviderPaymentID),
			zap.Error(err))
		return nil, g.wrapError("create refund", err)
	}

	return &payment.RefundResponse{
		ProviderRefundID: r.ID,
		Succeeded:        r.Status == stripe.RefundStatusSucceeded || r.Status == stripe.RefundStatusPending,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header and normalises PaymentIntent and charge events
func (g *StripeGateway) VerifyWebhook(_ context.Context, payload []byte, headers map[string]string) (*payment.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret not configured", payment.ErrGatewayNotConfigured)
	}
	signature := headerValue(headers, stripeSignatureHeader)
	if signature == "" {
		return nil, payment.ErrGatewayInvalidCallback
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidCallback, err)
	}

	out := &payment.WebhookEvent{
		Provider:   payment.ProviderStripe,
		EventID:    event.ID,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed",
		"payment_intent.canceled", "payment_intent.processing":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
		}
		out.ProviderPaymentID = pi.ID
		out.Reference = pi.Metadata[metadataPaymentID]
		out.Status = stripeEventStatus(string(event.Type), pi.Status)
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
		}
		if ch.PaymentIntent != nil {
			out.ProviderPaymentID = ch.PaymentIntent.ID
		}
		out.Reference = ch.Metadata[metadataPaymentID]
		out.Status = payment.GatewayStatusRefunded
	default:
		// Acknowledged but ignored
		return out, nil
	}

	return out, nil
}

func (g *StripeGateway) wrapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 || stripeErr.Type == stripe.ErrorTypeAPI {
			return fmt.Errorf("%w: stripe %s: %s", payment.ErrGatewayUnavailable, op, stripeErr.Msg)
		}
		return fmt.Errorf("%w: stripe %s: %s", payment.ErrGatewayRequestFailed, op, stripeErr.Msg)
	}
	return fmt.Errorf("%w: stripe %s: %v", payment.ErrGatewayRequestFailed, op, err)
}

func stripeEventStatus(eventType string, status stripe.PaymentIntentStatus) payment.GatewayStatus {
	switch eventType {
	case "payment_intent.succeeded":
		return payment.GatewayStatusSucceeded
	case "payment_intent.payment_failed":
		return payment.GatewayStatusFailed
	case "payment_intent.canceled":
		return payment.GatewayStatusCanceled
	default:
		return mapStripeIntentStatus(status)
	}
}

func mapStripeIntentStatus(status stripe.PaymentIntentStatus) payment.GatewayStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return payment.GatewayStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return payment.GatewayStatusCanceled
	default:
		return payment.GatewayStatusPending
	}
}

// headerValue looks a header up case-insensitively
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Ensure StripeGateway implements payment.Gateway
var _ payment.Gateway = (*StripeGateway)(nil)
