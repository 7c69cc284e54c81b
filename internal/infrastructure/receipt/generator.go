package receipt

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rentnest/backend/internal/domain/payment"
	"go.uber.org/zap"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

const dateLayout = "2 January 2006"

// Generator renders payment receipts as PDF
type Generator struct {
	renderer PDFRenderer
	money    *MoneyFormatter
	company  string
	logger   *zap.Logger
}

// NewGenerator creates a receipt generator
func NewGenerator(renderer PDFRenderer, locale, company string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(company) == "" {
		company = "RentNest"
	}
	return &Generator{
		renderer: renderer,
		money:    NewMoneyFormatter(locale),
		company:  company,
		logger:   logger,
	}
}

type receiptView struct {
	Lang              string
	Company           string
	Number            string
	IssuedAt          string
	PaidAt            string
	PayerName         string
	PayerEmail        string
	PayeeName         string
	PropertyTitle     string
	PropertyAddress   string
	Provider          string
	ProviderPaymentID string
	Item              string
	Amount            string
	PaymentID         string
}

// RenderReceipt implements payment.ReceiptRenderer
func (g *Generator) RenderReceipt(ctx context.Context, r *payment.Receipt) ([]byte, error) {
	html, err := g.RenderHTML(r)
	if err != nil {
		return nil, err
	}
	pdf, err := g.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	g.logger.Info("receipt generated",
		zap.String("receipt", r.Number),
		zap.String("payment_id", r.Payment.ID.String()))
	return pdf, nil
}

// RenderHTML produces the receipt document before printing
func (g *Generator) RenderHTML(r *payment.Receipt) (string, error) {
	if r == nil || r.Payment == nil {
		return "", fmt.Errorf("receipt: payment is required")
	}
	p := r.Payment

	paidAt := p.UpdatedAt
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}

	view := receiptView{
		Lang:              g.money.Locale().String(),
		Company:           g.company,
		Number:            r.Number,
		IssuedAt:          r.IssuedAt.Format(dateLayout),
		PaidAt:            paidAt.UTC().Format(dateLayout),
		PayerName:         r.PayerName,
		PayerEmail:        r.PayerEmail,
		PayeeName:         r.PayeeName,
		PropertyTitle:     r.PropertyTitle,
		PropertyAddress:   r.PropertyAddress,
		Provider:          providerLabel(p.Provider),
		ProviderPaymentID: p.ProviderPaymentID,
		Item:              itemLabel(p),
		Amount:            g.money.Format(p.Amount, p.Currency),
		PaymentID:         p.ID.String(),
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("receipt: render template: %w", err)
	}
	return buf.String(), nil
}

// Close releases the underlying renderer
func (g *Generator) Close() error {
	return g.renderer.Close()
}

func providerLabel(p payment.Provider) string {
	switch p {
	case payment.ProviderStripe:
		return "Card (Stripe)"
	case payment.ProviderPayPal:
		return "PayPal"
	default:
		return string(p)
	}
}

func itemLabel(p *payment.Payment) string {
	var label string
	switch p.PaymentType {
	case payment.PaymentTypeRent:
		label = "Rent"
	case payment.PaymentTypeDeposit:
		label = "Security deposit"
	case payment.PaymentTypeApplicationFee:
		label = "Application fee"
	default:
		label = string(p.PaymentType)
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		label += " - " + d
	}
	return label
}

var _ payment.ReceiptRenderer = (*Generator)(nil)
