package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByProviderPaymentID(ctx context.Context, provider Provider, providerPaymentID string) (*Payment, error)

	// FindByIdempotencyKey returns the payer's payment created under key
	FindByIdempotencyKey(ctx context.Context, payerID uuid.UUID, key string) (*Payment, error)

	// FindAll returns one page of payments; PartyID restricts to payer or payee
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)

	// SucceededTotals returns the count and summed amount of succeeded payments
	SucceededTotals(ctx context.Context) (int64, decimal.Decimal, error)
}

// PaymentFilter contains filter options for listing payments
type PaymentFilter struct {
	PartyID    *uuid.UUID
	Status     *Status
	PropertyID *uuid.UUID
	Page       int
	PageSize   int
}

// EscrowRepository defines the interface for escrow persistence
type EscrowRepository interface {
	Create(ctx context.Context, e *EscrowTransaction) error
	Update(ctx context.Context, e *EscrowTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*EscrowTransaction, error)
	FindAll(ctx context.Context, filter EscrowFilter) ([]EscrowTransaction, int64, error)

	// HeldTotal sums the amount currently in held or disputed status
	HeldTotal(ctx context.Context) (decimal.Decimal, error)
}

// EscrowFilter contains filter options for listing escrows
type EscrowFilter struct {
	PartyID    *uuid.UUID
	Status     *EscrowStatus
	PropertyID *uuid.UUID
	Page       int
	PageSize   int
}
