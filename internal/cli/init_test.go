package cli

import (
	"testing"

	"github.com/shopspring/decimal"

	"findash/internal/config"
	"findash/internal/core"
)

func TestFormatter(t *testing.T) {
	s := core.Summary{
		Period:        core.PeriodOverall,
		TotalRevenue:  decimal.NewFromInt(1000),
		TotalExpenses: decimal.NewFromInt(400),
		Profit:        decimal.NewFromInt(600),
	}
	tests := []struct {
		lang, currency, want string
	}{
		{"en", "₽", "Profit: 600.00 ₽"},
		{"ru", "₽", "Прибыль: 600.00 ₽"},
		{"", "$", "Profit: 600.00 $"},
	}
	for _, tt := range tests {
		f := Formatter(&config.Config{DisplayLang: tt.lang, CurrencySymbol: tt.currency})
		if got := f.Format(s).Profit; got != tt.want {
			t.Fatalf("lang=%q currency=%q: got %q, want %q", tt.lang, tt.currency, got, tt.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "test")
	if logger.Component() != "test" {
		t.Fatalf("component = %q", logger.Component())
	}
}
