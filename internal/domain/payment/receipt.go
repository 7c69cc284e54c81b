package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Receipt is what gets printed for a succeeded payment
type Receipt struct {
	Number          string
	Payment         *Payment
	PropertyTitle   string
	PropertyAddress string
	PayerName       string
	PayerEmail      string
	PayeeName       string
	IssuedAt        time.Time
}

// ReceiptRenderer turns a receipt into a PDF document
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, r *Receipt) ([]byte, error)
}

// NewReceipt builds a receipt for p. Only succeeded payments have one.
func NewReceipt(p *Payment, issuedAt time.Time) (*Receipt, error) {
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if p.Status != StatusSucceeded {
		return nil, ErrReceiptUnavailable
	}
	return &Receipt{
		Number:   ReceiptNumber(p),
		Payment:  p,
		IssuedAt: issuedAt.UTC(),
	}, nil
}

// ReceiptNumber derives a stable human-readable number from the payment id and paid date
func ReceiptNumber(p *Payment) string {
	day := p.CreatedAt
	if p.PaidAt != nil {
		day = *p.PaidAt
	}
	short := strings.ToUpper(strings.ReplaceAll(p.ID.String(), "-", "")[:8])
	return fmt.Sprintf("RN-%s-%s", day.UTC().Format("20060102"), short)
}
