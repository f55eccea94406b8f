package summary

import (
	"strings"
	"time"

	"findash/internal/core"
	"findash/internal/ingest"
)

// DateLayout accepts one- or two-digit day and month and a four-digit year.
const DateLayout = "2.1.2006"

// ParseDate converts DD.MM.YYYY text into a calendar date. Impossible dates
// such as 31.13.2024 or 30.02.2024 are rejected.
func ParseDate(s string) (core.Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

// Normalize validates the header and converts raw rows into transactions.
//
// The whole date column is checked before any amount, so a batch with a bad
// date always fails with DateFormatError. The first failure aborts the batch.
func Normalize(table *ingest.Table) ([]core.Transaction, error) {
	if missing := table.MissingColumns(core.RequiredColumns); len(missing) > 0 {
		return nil, &core.MissingColumnError{Columns: missing}
	}

	dates := make([]core.Date, len(table.Rows))
	for i, row := range table.Rows {
		raw := row.Get(core.ColumnDate)
		d, err := ParseDate(raw)
		if err != nil {
			return nil, &core.DateFormatError{Line: row.Line, Value: raw, Err: err}
		}
		dates[i] = d
	}

	txs := make([]core.Transaction, 0, len(table.Rows))
	for i, row := range table.Rows {
		raw := row.Get(core.ColumnAmount)
		amount, err := core.ParseAmount(raw)
		if err != nil {
			return nil, &core.ParseError{Line: row.Line, Column: core.ColumnAmount, Value: raw, Err: err}
		}
		typ := row.Get(core.ColumnType)
		txs = append(txs, core.Transaction{
			Line:     row.Line,
			Date:     dates[i],
			Type:     core.ParseTransactionType(typ),
			RawType:  strings.TrimSpace(typ),
			Amount:   amount,
			Category: strings.TrimSpace(row.Get(core.ColumnCategory)),
			Time:     strings.TrimSpace(row.Get(core.ColumnTime)),
		})
	}
	return txs, nil
}
