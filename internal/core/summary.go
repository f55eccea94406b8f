package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodOverall labels the single summary computed over every row.
const PeriodOverall = "Overall"

const (
	GranularityOverall Granularity = "overall"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Granularity selects how the optional period breakdown buckets rows.
type Granularity string

// ParseGranularity accepts the English names and the Russian labels of the
// period selector. Empty input means GranularityOverall.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overall", "all":
		return GranularityOverall, nil
	case "month", "месяц":
		return GranularityMonth, nil
	case "quarter", "квартал":
		return GranularityQuarter, nil
	case "year", "год":
		return GranularityYear, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// BucketKey returns the period label a date falls in, e.g. "2024-01",
// "2024-Q1" or "2024". Overall maps every date to PeriodOverall.
func (g Granularity) BucketKey(d Date) string {
	switch g {
	case GranularityMonth:
		return d.Format("2006-01")
	case GranularityQuarter:
		return strconv.Itoa(d.Year()) + "-Q" + strconv.Itoa(d.Quarter())
	case GranularityYear:
		return strconv.Itoa(d.Year())
	default:
		return PeriodOverall
	}
}

// BucketStart returns the first day of the bucket containing d, used for ordering.
func (g Granularity) BucketStart(d Date) Date {
	switch g {
	case GranularityMonth:
		return NewDate(d.Year(), int(d.Month()), 1)
	case GranularityQuarter:
		return NewDate(d.Year(), (d.Quarter()-1)*3+1, 1)
	case GranularityYear:
		return NewDate(d.Year(), 1, 1)
	default:
		return Date{}
	}
}

// Summary is the aggregate record of revenue, expenses and profit.
type Summary struct {
	Period        string          `json:"period"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// SeriesPoint is one time-series sample; exactly one of Revenue and Expense
// is set for recognized rows, neither for rows of unknown type.
type SeriesPoint struct {
	Date    Date             `json:"date"`
	Revenue *decimal.Decimal `json:"revenue"`
	Expense *decimal.Decimal `json:"expense"`
}

// Display holds the three formatted indicator strings.
type Display struct {
	Profit   string `json:"profit"`
	Revenue  string `json:"revenue"`
	Expenses string `json:"expenses"`
}

// Report is the complete result of one upload event.
type Report struct {
	ID          string                 `json:"id"`
	Filename    string                 `json:"filename"`
	CreatedAt   time.Time              `json:"created_at"`
	Granularity Granularity            `json:"granularity"`
	Summary     Summary                `json:"summary"`
	Display     Display                `json:"display"`
	Rows        []AnnotatedTransaction `json:"-"`
	Series      []SeriesPoint          `json:"series"`
	Categories  []CategoryAmount       `json:"categories"`
	Periods     []Summary              `json:"periods,omitempty"`
}

// RowCount returns the number of ingested data rows.
func (r *Report) RowCount() int {
	return len(r.Rows)
}

// MarshalJSON renders dates as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.ISO() + `"`), nil
}
