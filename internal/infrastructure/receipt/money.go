package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter prints amounts with locale-specific grouping and currency symbols
type MoneyFormatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMoneyFormatter parses a BCP 47 locale, falling back to en-US
func NewMoneyFormatter(locale string) *MoneyFormatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.AmericanEnglish
	}
	return &MoneyFormatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the tag in use
func (f *MoneyFormatter) Locale() language.Tag {
	return f.tag
}

// Format renders amount in the given ISO 4217 currency, e.g. "$ 1,850.00" for en-US.
// Unknown currency codes fall back to the bare code.
func (f *MoneyFormatter) Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + f.Number(amount, 2)
	}
	scale, _ := currency.Standard.Rounding(unit)
	rounded := amount.Round(int32(scale))
	return f.printer.Sprint(currency.Symbol(unit.Amount(rounded.InexactFloat64())))
}

// Number renders a plain decimal with locale grouping
func (f *MoneyFormatter) Number(amount decimal.Decimal, scale int) string {
	return f.printer.Sprint(number.Decimal(amount.Round(int32(scale)).InexactFloat64(), number.Scale(scale)))
}
