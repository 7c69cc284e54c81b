package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// CreateInput opens a payment from the caller to a listing's owner
type CreateInput struct {
	PropertyID        uuid.UUID
	ApplicationID     *uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	PaymentType       payment.PaymentType
	Provider          payment.Provider
	Description       string
	IdempotencyKey    string
	HoldInEscrow      bool
	ReleaseConditions string
}

// ListInput filters payments
type ListInput struct {
	Status     *payment.Status
	PropertyID *uuid.UUID
	Page       int
	PageSize   int
}

// PaymentResult is the API representation of a payment
type PaymentResult struct {
	ID                uuid.UUID           `json:"id"`
	PayerID           uuid.UUID           `json:"payer_id"`
	PayeeID           uuid.UUID           `json:"payee_id"`
	PropertyID        uuid.UUID           `json:"property_id"`
	ApplicationID     *uuid.UUID          `json:"application_id,omitempty"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency"`
	PaymentType       payment.PaymentType `json:"payment_type"`
	Provider          payment.Provider    `json:"provider"`
	ProviderPaymentID string              `json:"provider_payment_id,omitempty"`
	Status            payment.Status      `json:"status"`
	CheckoutURL       string              `json:"checkout_url,omitempty"`
	ClientSecret      string              `json:"client_secret,omitempty"`
	Description       string              `json:"description,omitempty"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	EscrowID          *uuid.UUID          `json:"escrow_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// toPaymentResult renders p for viewer; only the payer sees the client secret
func toPaymentResult(p *payment.Payment, viewer uuid.UUID) PaymentResult {
	r := PaymentResult{
		ID:                p.ID,
		PayerID:           p.PayerID,
		PayeeID:           p.PayeeID,
		PropertyID:        p.PropertyID,
		ApplicationID:     p.ApplicationID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		PaymentType:       p.PaymentType,
		Provider:          p.Provider,
		ProviderPaymentID: p.ProviderPaymentID,
		Status:            p.Status,
		CheckoutURL:       p.CheckoutURL,
		Description:       p.Description,
		PaidAt:            p.PaidAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if viewer == p.PayerID && p.Status == payment.StatusPending {
		r.ClientSecret = p.ClientSecret
	}
	return r
}

// ReceiptFile is a rendered PDF receipt
type ReceiptFile struct {
	FileName string
	Content  []byte
}
