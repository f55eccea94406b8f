package summary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// DefaultCurrency is the marker appended to every indicator.
const DefaultCurrency = "₽"

// Labels are the captions of the three indicators.
type Labels struct {
	Profit   string
	Revenue  string
	Expenses string
}

var (
	EnglishLabels = Labels{Profit: "Profit", Revenue: "Revenue", Expenses: "Expenses"}
	RussianLabels = Labels{Profit: "Прибыль", Revenue: "Доходы", Expenses: "Расходы"}
)

// LabelsFor returns the label set for a language code, English by default.
func LabelsFor(lang string) Labels {
	if strings.EqualFold(strings.TrimSpace(lang), "ru") {
		return RussianLabels
	}
	return EnglishLabels
}

// Formatter renders a summary into the indicator strings.
type Formatter struct {
	Labels   Labels
	Currency string
}

// DefaultFormatter renders English labels with the ruble marker.
func DefaultFormatter() Formatter {
	return Formatter{Labels: EnglishLabels, Currency: DefaultCurrency}
}

// Format produces e.g. "Profit: 600.00 ₽". Rounding to two decimals happens here only.
func (f Formatter) Format(s core.Summary) core.Display {
	return core.Display{
		Profit:   f.line(f.Labels.Profit, s.Profit),
		Revenue:  f.line(f.Labels.Revenue, s.TotalRevenue),
		Expenses: f.line(f.Labels.Expenses, s.TotalExpenses),
	}
}

func (f Formatter) line(label string, v decimal.Decimal) string {
	if f.Currency == "" {
		return fmt.Sprintf("%s: %s", label, core.FormatAmount(v))
	}
	return fmt.Sprintf("%s: %s %s", label, core.FormatAmount(v), f.Currency)
}
