package escrow

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// CreateInput holds funds from the caller for a listing's owner
type CreateInput struct {
	PropertyID        uuid.UUID
	PaymentID         *uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	Description       string
	ReleaseConditions string
}

// ListInput filters escrows
type ListInput struct {
	Status     *payment.EscrowStatus
	PropertyID *uuid.UUID
	Page       int
	PageSize   int
}

// EscrowResult is the API representation of an escrow transaction
type EscrowResult struct {
	ID                uuid.UUID            `json:"id"`
	PaymentID         *uuid.UUID           `json:"payment_id,omitempty"`
	PropertyID        uuid.UUID            `json:"property_id"`
	PayerID           uuid.UUID            `json:"payer_id"`
	PayeeID           uuid.UUID            `json:"payee_id"`
	Amount            decimal.Decimal      `json:"amount"`
	Currency          string               `json:"currency"`
	Status            payment.EscrowStatus `json:"status"`
	Description       string               `json:"description,omitempty"`
	ReleaseConditions string               `json:"release_conditions,omitempty"`
	DisputeReason     string               `json:"dispute_reason,omitempty"`
	HeldAt            time.Time            `json:"held_at"`
	ReleasedAt        *time.Time           `json:"released_at,omitempty"`
	RefundedAt        *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ToEscrowResult converts a domain EscrowTransaction to EscrowResult
func ToEscrowResult(e *payment.EscrowTransaction) EscrowResult {
	return EscrowResult{
		ID:                e.ID,
		PaymentID:         e.PaymentID,
		PropertyID:        e.PropertyID,
		PayerID:           e.PayerID,
		PayeeID:           e.PayeeID,
		Amount:            e.Amount,
		Currency:          e.Currency,
		Status:            e.Status,
		Description:       e.Description,
		ReleaseConditions: e.ReleaseConditions,
		DisputeReason:     e.DisputeReason,
		HeldAt:            e.HeldAt,
		ReleasedAt:        e.ReleasedAt,
		RefundedAt:        e.RefundedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}
