package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrGatewayInvalidCallback = errors.New("payment: invalid webhook signature")
)

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// Provider identifies an external payment gateway
type Provider string

const (
	// ProviderStripe is card checkout through Stripe PaymentIntents
	ProviderStripe Provider = "stripe"
	// ProviderPayPal is checkout through PayPal Orders
	ProviderPayPal Provider = "paypal"
)

// IsValid returns true if the provider is known
func (p Provider) IsValid() bool {
	return p == ProviderStripe || p == ProviderPayPal
}

// String returns the string representation of Provider
func (p Provider) String() string {
	return string(p)
}

// ---------------------------------------------------------------------------
// Gateway Request/Response Types
// ---------------------------------------------------------------------------

// CreateIntentRequest asks a gateway to open a payment
type CreateIntentRequest struct {
	// Reference is our payment id, echoed back in webhooks
	Reference string
	Amount    decimal.Decimal
	// Currency is an ISO 4217 code
	Currency       string
	Description    string
	IdempotencyKey string
	// ReturnURL and CancelURL are used by redirect-based gateways
	ReturnURL string
	CancelURL string
}

// CreateIntentResponse is what the client needs to complete the payment
type CreateIntentResponse struct {
	ProviderPaymentID string
	// ClientSecret is set by Stripe for client-side confirmation
	ClientSecret string
	// CheckoutURL is set by PayPal for the approval redirect
	CheckoutURL string
	Status      GatewayStatus
}

// GatewayStatus is the gateway-side state normalised across providers
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusSucceeded GatewayStatus = "succeeded"
	GatewayStatusFailed    GatewayStatus = "failed"
	GatewayStatusCanceled  GatewayStatus = "canceled"
	GatewayStatusRefunded  GatewayStatus = "refunded"
)

// QueryResponse is the current gateway view of a payment
type QueryResponse struct {
	ProviderPaymentID string
	Status            GatewayStatus
	PaidAt            *time.Time
}

// RefundRequest asks a gateway to return a captured payment
type RefundRequest struct {
	ProviderPaymentID string
	Amount            decimal.Decimal
	Currency          string
	Reason            string
}

// RefundResponse is the gateway acknowledgement of a refund
type RefundResponse struct {
	ProviderRefundID string
	Succeeded        bool
}

// WebhookEvent is a verified, normalised gateway notification
type WebhookEvent struct {
	Provider          Provider
	EventID           string
	ProviderPaymentID string
	// Reference is our payment id when the gateway carries it
	Reference  string
	Status     GatewayStatus
	OccurredAt time.Time
}

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// Gateway is the port for external payment providers.
// It is defined in the domain layer; Stripe and PayPal adapters live in infrastructure.
type Gateway interface {
	// Provider returns the provider this adapter talks to
	Provider() Provider

	// CreateIntent opens a payment and returns what the client needs to pay
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*CreateIntentResponse, error)

	// Query fetches the current gateway status
	Query(ctx context.Context, providerPaymentID string) (*QueryResponse, error)

	// Refund returns a captured payment to the payer
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)

	// VerifyWebhook authenticates and parses a webhook delivery.
	// headers carries the provider's signature headers.
	VerifyWebhook(ctx context.Context, payload []byte, headers map[string]string) (*WebhookEvent, error)
}

// GatewayRegistry provides access to configured gateways
type GatewayRegistry interface {
	// Get returns the gateway for the provider or ErrGatewayNotConfigured
	Get(provider Provider) (Gateway, error)

	// Providers lists the configured providers
	Providers() []Provider
}
