package present

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"salesavor/internal/config"
)

// Formatter localizes money and labels.
type Formatter struct {
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
	title   cases.Caser
	symbol  string
}

// NewFormatter builds a formatter for an ISO currency code and a BCP 47
// language tag. Blank values fall back to CAD and en-CA.
func NewFormatter(currencyCode, lang string) (*Formatter, error) {
	if strings.TrimSpace(currencyCode) == "" {
		currencyCode = "CAD"
	}
	if strings.TrimSpace(lang) == "" {
		lang = "en-CA"
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", currencyCode, err)
	}
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return nil, fmt.Errorf("language %q: %w", lang, err)
	}
	printer := message.NewPrinter(tag)
	return &Formatter{
		unit:    unit,
		tag:     tag,
		printer: printer,
		title:   cases.Title(tag),
		symbol:  printer.Sprint(currency.NarrowSymbol(unit)),
	}, nil
}

// FormatterFromConfig builds the formatter for the display section.
func FormatterFromConfig(cfg config.Display) (*Formatter, error) {
	return NewFormatter(cfg.Currency, cfg.Language)
}

// DefaultFormatter formats CAD for en-CA.
func DefaultFormatter() *Formatter {
	f, err := NewFormatter("CAD", "en-CA")
	if err != nil {
		panic(err)
	}
	return f
}

// Currency returns the ISO code being formatted.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Money renders an amount with the currency symbol and two decimals.
func (f *Formatter) Money(amount decimal.Decimal) string {
	value := amount.Round(2).InexactFloat64()
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(value, number.Scale(2)))
}

// Number renders a float with locale grouping and the given decimals.
func (f *Formatter) Number(value float64, decimals int) string {
	return f.printer.Sprint(number.Decimal(value, number.Scale(decimals)))
}

// Title applies locale-aware title casing.
func (f *Formatter) Title(value string) string {
	return f.title.String(strings.TrimSpace(value))
}

// Minutes renders a duration in minutes as "25 min" or "1 h 10 min".
func (f *Formatter) Minutes(total int) string {
	if total <= 0 {
		return "-"
	}
	if total < 60 {
		return f.printer.Sprintf("%d min", total)
	}
	hours, minutes := total/60, total%60
	if minutes == 0 {
		return f.printer.Sprintf("%d h", hours)
	}
	return f.printer.Sprintf("%d h %d min", hours, minutes)
}
