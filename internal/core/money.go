// Package core provides money parsing and formatting utilities.
//
// Amounts are decimal.Decimal throughout so that sums and the profit
// subtraction are exact; rounding happens only when a value is rendered.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount is not a decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to a signed decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a leading
// sign, and spaces (including no-break spaces) used as thousands separators.
// Returns ErrInvalidAmount for empty or malformed input.
//
// Examples:
//
//	ParseAmount("1000")      -> 1000, nil
//	ParseAmount("-12,5")     -> -12.5, nil
//	ParseAmount("1 234.56")  -> 1234.56, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" || body == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range body {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(body, ".") {
		body = "0" + body
	}
	if strings.HasPrefix(s, "-") {
		body = "-" + body
	}
	d, err := decimal.NewFromString(body)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
