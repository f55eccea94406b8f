// Package sheets defines the spreadsheet export port used by the worker.
package sheets

import (
	"context"
	"strconv"

	"findash/internal/core"
	"findash/internal/history"
)

// SummaryExporter appends one row per archived report.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, e history.Entry) (rowRef string, err error)
}

// Header is the first row of the export sheet.
var Header = []string{"Report", "Created", "File", "Rows", "Period", "Revenue", "Expenses", "Profit"}

// SummaryRow renders e in Header order. Amounts use two decimals.
func SummaryRow(e history.Entry) []string {
	return []string{
		e.ReportID,
		e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		e.Filename,
		strconv.Itoa(e.Rows),
		string(e.Granularity),
		core.FormatAmount(e.TotalRevenue),
		core.FormatAmount(e.TotalExpenses),
		core.FormatAmount(e.Profit),
	}
}
