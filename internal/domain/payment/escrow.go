package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EscrowStatus is the state of funds held on behalf of both parties
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

// IsValid returns true if the status is known
func (s EscrowStatus) IsValid() bool {
	switch s {
	case EscrowStatusHeld, EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusDisputed:
		return true
	default:
		return false
	}
}

// EscrowAction is a requested escrow transition
type EscrowAction string

const (
	EscrowActionRelease EscrowAction = "release"
	EscrowActionRefund  EscrowAction = "refund"
	EscrowActionDispute EscrowAction = "dispute"
)

// IsValid returns true if the action is known
func (a EscrowAction) IsValid() bool {
	return a == EscrowActionRelease || a == EscrowActionRefund || a == EscrowActionDispute
}

// EscrowTransaction holds a payer's funds until released to the payee or refunded
type EscrowTransaction struct {
	shared.BaseEntity
	PaymentID         *uuid.UUID      `gorm:"type:uuid;index"`
	PropertyID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayerID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayeeID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Status            EscrowStatus    `gorm:"type:varchar(20);not null;default:'held';index"`
	Description       string          `gorm:"type:text"`
	ReleaseConditions string          `gorm:"type:text"`
	DisputeReason     string          `gorm:"type:text"`
	HeldAt            time.Time       `gorm:"not null"`
	ReleasedAt        *time.Time
	RefundedAt        *time.Time
}

// TableName returns the table name for GORM
func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}

// NewEscrowInput holds the fields required to open an escrow
type NewEscrowInput struct {
	PaymentID         *uuid.UUID
	PropertyID        uuid.UUID
	PayerID           uuid.UUID
	PayeeID           uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	Description       string
	ReleaseConditions string
}

// NewEscrow creates a held escrow
func NewEscrow(in NewEscrowInput) (*EscrowTransaction, error) {
	if in.PropertyID == uuid.Nil || in.PayerID == uuid.Nil || in.PayeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Property, payer and payee are required")
	}
	if in.PayerID == in.PayeeID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payer and payee must differ")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount must be greater than zero")
	}
	currency := normaliseCurrency(in.Currency)
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Currency must be an ISO 4217 code")
	}
	base := shared.NewBaseEntity()
	return &EscrowTransaction{
		BaseEntity:        base,
		PaymentID:         in.PaymentID,
		PropertyID:        in.PropertyID,
		PayerID:           in.PayerID,
		PayeeID:           in.PayeeID,
		Amount:            in.Amount.Round(2),
		Currency:          currency,
		Status:            EscrowStatusHeld,
		Description:       strings.TrimSpace(in.Description),
		ReleaseConditions: strings.TrimSpace(in.ReleaseConditions),
		HeldAt:            base.CreatedAt,
	}, nil
}

// IsParty reports whether the profile is payer or payee
func (e *EscrowTransaction) IsParty(profileID uuid.UUID) bool {
	return e.PayerID == profileID || e.PayeeID == profileID
}

// Actor identifies who requests an escrow transition
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

// Apply performs an escrow transition.
//
//	held     -> released  payer or admin
//	held     -> refunded  payee or admin
//	held     -> disputed  either party, reason required
//	disputed -> released  admin
//	disputed -> refunded  admin
func (e *EscrowTransaction) Apply(action EscrowAction, actor Actor, reason string) error {
	if !action.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Action must be release, refund or dispute")
	}
	reason = strings.TrimSpace(reason)
	if !actor.IsAdmin && !e.IsParty(actor.ID) {
		return shared.NewDomainError("FORBIDDEN", "Not a party to this escrow")
	}

	switch e.Status {
	case EscrowStatusHeld:
		switch action {
		case EscrowActionRelease:
			if !actor.IsAdmin && actor.ID != e.PayerID {
				return shared.NewDomainError("FORBIDDEN", "Only the payer can release escrowed funds")
			}
			e.release()
		case EscrowActionRefund:
			if !actor.IsAdmin && actor.ID != e.PayeeID {
				return shared.NewDomainError("FORBIDDEN", "Only the payee can refund escrowed funds")
			}
			e.refund()
		case EscrowActionDispute:
			if !e.IsParty(actor.ID) {
				return shared.NewDomainError("FORBIDDEN", "Only a party can dispute an escrow")
			}
			if reason == "" {
				return shared.NewDomainError("INVALID_INPUT", "A reason is required to dispute an escrow")
			}
			e.Status = EscrowStatusDisputed
			e.DisputeReason = reason
		}
	case EscrowStatusDisputed:
		if action == EscrowActionDispute {
			return shared.NewDomainError("INVALID_STATE", "Escrow is already disputed")
		}
		if !actor.IsAdmin {
			return shared.NewDomainError("FORBIDDEN", "Only an admin can resolve a dispute")
		}
		if action == EscrowActionRelease {
			e.release()
		} else {
			e.refund()
		}
	default:
		return shared.NewDomainError("INVALID_STATE", "Escrow is already "+string(e.Status))
	}
	e.Touch()
	return nil
}

func (e *EscrowTransaction) release() {
	now := time.Now().UTC()
	e.Status = EscrowStatusReleased
	e.ReleasedAt = &now
}

func (e *EscrowTransaction) refund() {
	now := time.Now().UTC()
	e.Status = EscrowStatusRefunded
	e.RefundedAt = &now
}
