package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentType is what a payment is for
type PaymentType string

const (
	PaymentTypeRent           PaymentType = "rent"
	PaymentTypeDeposit        PaymentType = "deposit"
	PaymentTypeApplicationFee PaymentType = "application_fee"
)

// IsValid returns true if the payment type is known
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeRent || t == PaymentTypeDeposit || t == PaymentTypeApplicationFee
}

// Status is the lifecycle of a payment
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusCanceled  Status = "canceled"
)

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSucceeded, StatusFailed, StatusRefunded, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether gateway updates can no longer change the status
func (s Status) IsTerminal() bool {
	return s == StatusRefunded || s == StatusCanceled || s == StatusFailed
}

// Payment is money moving from a payer to a payee through a gateway
type Payment struct {
	shared.BaseAggregateRoot
	PayerID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayeeID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PropertyID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ApplicationID     *uuid.UUID      `gorm:"type:uuid"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentType       PaymentType     `gorm:"type:varchar(30);not null"`
	Provider          Provider        `gorm:"type:varchar(20);not null"`
	ProviderPaymentID string          `gorm:"type:varchar(255);index"`
	Status            Status          `gorm:"type:varchar(20);not null;default:'pending';index"`
	CheckoutURL       string          `gorm:"type:varchar(1000)"`
	ClientSecret      string          `gorm:"type:varchar(255)"`
	Description       string          `gorm:"type:text"`
	IdempotencyKey    *string         `gorm:"type:varchar(255)"`
	PaidAt            *time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPaymentInput holds the fields required to open a payment
type NewPaymentInput struct {
	PayerID        uuid.UUID
	PayeeID        uuid.UUID
	PropertyID     uuid.UUID
	ApplicationID  *uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	PaymentType    PaymentType
	Provider       Provider
	Description    string
	IdempotencyKey string
}

// NewPayment creates a pending payment
func NewPayment(in NewPaymentInput) (*Payment, error) {
	if in.PayerID == uuid.Nil || in.PayeeID == uuid.Nil || in.PropertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payer, payee and property are required")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount must be greater than zero")
	}
	if !in.PaymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment type must be rent, deposit or application_fee")
	}
	if !in.Provider.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Provider must be stripe or paypal")
	}
	currency := normaliseCurrency(in.Currency)
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Currency must be an ISO 4217 code")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PayerID:           in.PayerID,
		PayeeID:           in.PayeeID,
		PropertyID:        in.PropertyID,
		ApplicationID:     in.ApplicationID,
		Amount:            in.Amount.Round(2),
		Currency:          currency,
		PaymentType:       in.PaymentType,
		Provider:          in.Provider,
		Status:            StatusPending,
		Description:       strings.TrimSpace(in.Description),
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		p.IdempotencyKey = &key
	}
	return p, nil
}

// AttachIntent records the gateway's side of the payment
func (p *Payment) AttachIntent(resp *CreateIntentResponse) {
	p.ProviderPaymentID = resp.ProviderPaymentID
	p.ClientSecret = resp.ClientSecret
	p.CheckoutURL = resp.CheckoutURL
	if resp.Status != "" {
		p.ApplyGatewayStatus(resp.Status, nil)
	}
	p.Touch()
}

// ApplyGatewayStatus moves the payment to match the gateway. Returns true if anything changed.
// Terminal payments are never changed.
func (p *Payment) ApplyGatewayStatus(gs GatewayStatus, paidAt *time.Time) bool {
	next := fromGateway(gs)
	if next == "" || next == p.Status {
		return false
	}
	if p.Status.IsTerminal() {
		return false
	}
	p.Status = next
	if next == StatusSucceeded {
		if paidAt == nil {
			now := time.Now().UTC()
			paidAt = &now
		}
		p.PaidAt = paidAt
		p.AddDomainEvent(NewPaymentSucceededEvent(p))
	}
	p.Touch()
	return true
}

// MarkRefunded records a completed refund
func (p *Payment) MarkRefunded() error {
	if p.Status != StatusSucceeded {
		return shared.NewDomainError("INVALID_STATE", "Only succeeded payments can be refunded")
	}
	p.Status = StatusRefunded
	p.Touch()
	return nil
}

// MarkFailed records that the gateway rejected the payment
func (p *Payment) MarkFailed() {
	p.Status = StatusFailed
	p.Touch()
}

// IsParty reports whether the profile paid or received the payment
func (p *Payment) IsParty(profileID uuid.UUID) bool {
	return p.PayerID == profileID || p.PayeeID == profileID
}

func fromGateway(gs GatewayStatus) Status {
	switch gs {
	case GatewayStatusPending:
		return StatusPending
	case GatewayStatusSucceeded:
		return StatusSucceeded
	case GatewayStatusFailed:
		return StatusFailed
	case GatewayStatusCanceled:
		return StatusCanceled
	case GatewayStatusRefunded:
		return StatusRefunded
	default:
		return ""
	}
}

func normaliseCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD"
	}
	return c
}
