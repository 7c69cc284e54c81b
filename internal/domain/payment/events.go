package payment

import (
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypePayment = "Payment"

	EventTypePaymentSucceeded = "PaymentSucceeded"
)

// PaymentSucceededEvent is raised when the gateway confirms a capture
type PaymentSucceededEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	PayerID     uuid.UUID       `json:"payer_id"`
	PayeeID     uuid.UUID       `json:"payee_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PaymentType PaymentType     `json:"payment_type"`
	Provider    Provider        `json:"provider"`
}

// NewPaymentSucceededEvent creates a new PaymentSucceededEvent
func NewPaymentSucceededEvent(p *Payment) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSucceeded, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		PayerID:         p.PayerID,
		PayeeID:         p.PayeeID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PaymentType:     p.PaymentType,
		Provider:        p.Provider,
	}
}
