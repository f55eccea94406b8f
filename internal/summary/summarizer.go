// Package summary implements the CSV-to-summary pipeline:
// ingest, normalize, aggregate and format.
//
// A Summarizer holds only configuration. Every call works on its own input
// and either returns a complete report or an error, never partial numbers.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"findash/internal/core"
	"findash/internal/ingest"
)

// Upload is one submitted file.
type Upload struct {
	Filename    string
	Data        []byte
	Granularity core.Granularity
}

// Summarizer runs the pipeline for upload events.
type Summarizer struct {
	delim     rune
	formatter Formatter
	now       func() time.Time
	newID     func() string
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithFormatter sets the indicator formatter.
func WithFormatter(f Formatter) Option {
	return func(s *Summarizer) { s.formatter = f }
}

// WithDelimiter overrides the field separator.
func WithDelimiter(d rune) Option {
	return func(s *Summarizer) { s.delim = d }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) { s.now = now }
}

// WithIDGenerator overrides report ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Summarizer) { s.newID = gen }
}

// New creates a Summarizer with the default delimiter and formatter.
func New(opts ...Option) *Summarizer {
	s := &Summarizer{
		delim:     ingest.DefaultDelimiter,
		formatter: DefaultFormatter(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize runs ingest, normalize, aggregate and format over one upload.
func (s *Summarizer) Summarize(ctx context.Context, up Upload) (*core.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := ingest.ReadRows(up.Data, s.delim)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", up.Filename, err)
	}

	txs, err := Normalize(table)
	if err != nil {
		return nil, fmt.Errorf("normalize %q: %w", up.Filename, err)
	}

	g := up.Granularity
	if g == "" {
		g = core.GranularityOverall
	}
	agg := Aggregate(txs, g)

	return &core.Report{
		ID:          s.newID(),
		Filename:    up.Filename,
		CreatedAt:   s.now().UTC(),
		Granularity: g,
		Summary:     agg.Summary,
		Display:     s.formatter.Format(agg.Summary),
		Rows:        agg.Rows,
		Series:      agg.Series,
		Categories:  agg.Categories,
		Periods:     agg.Periods,
	}, nil
}

// Regroup returns a shallow copy of r with the period breakdown recomputed for g.
// The overall summary and the rows are shared with r.
func Regroup(r *core.Report, g core.Granularity) *core.Report {
	out := *r
	out.Granularity = g
	txs := make([]core.Transaction, len(r.Rows))
	for i, row := range r.Rows {
		txs[i] = row.Transaction
	}
	out.Periods = Periods(txs, g)
	return &out
}
