// Package history records one summary line per computed report.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// DefaultLimit is used when a caller asks for a non-positive number of entries.
const DefaultLimit = 20

// ErrInvalidEntry is returned for entries without a report ID.
var ErrInvalidEntry = errors.New("history entry has no report id")

// Entry is the archived summary of one upload.
type Entry struct {
	ReportID      string           `json:"report_id"`
	Filename      string           `json:"filename"`
	CreatedAt     time.Time        `json:"created_at"`
	Rows          int              `json:"rows"`
	Granularity   core.Granularity `json:"granularity"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	TotalExpenses decimal.Decimal  `json:"total_expenses"`
	Profit        decimal.Decimal  `json:"profit"`
}

// FromReport extracts the archived fields of r.
func FromReport(r *core.Report) Entry {
	return Entry{
		ReportID:      r.ID,
		Filename:      r.Filename,
		CreatedAt:     r.CreatedAt,
		Rows:          r.RowCount(),
		Granularity:   r.Granularity,
		TotalRevenue:  r.Summary.TotalRevenue,
		TotalExpenses: r.Summary.TotalExpenses,
		Profit:        r.Summary.Profit,
	}
}

// Validate checks the fields every backend relies on.
func (e Entry) Validate() error {
	if e.ReportID == "" {
		return ErrInvalidEntry
	}
	return nil
}

type (
	// Recorder archives entries. Recording the same report twice is a no-op.
	Recorder interface {
		Record(ctx context.Context, e Entry) error
	}

	// Reader lists the newest entries first.
	Reader interface {
		Recent(ctx context.Context, limit int) ([]Entry, error)
	}

	// Store is a backend that does both.
	Store interface {
		Recorder
		Reader
	}
)

// NormalizeLimit maps non-positive limits to DefaultLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
