package http

import (
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// reportView is the JSON shape of a report, rows included.
type reportView struct {
	*core.Report
	RowCount int       `json:"row_count"`
	Rows     []rowView `json:"rows"`
}

// rowView is one annotated row.
type rowView struct {
	Line     int              `json:"line"`
	Date     core.Date        `json:"date"`
	Type     string           `json:"type"`
	Amount   decimal.Decimal  `json:"amount"`
	Category string           `json:"category"`
	Time     string           `json:"time"`
	Income   *decimal.Decimal `json:"income"`
	Expense  *decimal.Decimal `json:"expense"`
}

func newReportView(r *core.Report) reportView {
	rows := make([]rowView, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = rowView{
			Line:     row.Line,
			Date:     row.Date,
			Type:     row.RawType,
			Amount:   row.Amount,
			Category: row.Category,
			Time:     row.Time,
			Income:   row.IncomeAmount,
			Expense:  row.ExpenseAmount,
		}
	}
	return reportView{Report: r, RowCount: len(rows), Rows: rows}
}

// dashboardData feeds dashboard.html. Amounts are preformatted.
type dashboardData struct {
	ID         string
	Filename   string
	CreatedAt  string
	Display    core.Display
	Period     string
	Options    []periodOption
	Periods    []periodRow
	Categories []categoryRow
	Rows       []tableRow
	RowCount   int
	ChartsURL  string
}

type periodOption struct {
	Value    string
	Label    string
	Selected bool
}

type periodRow struct {
	Period   string
	Revenue  string
	Expenses string
	Profit   string
	Negative bool
}

type categoryRow struct {
	Name   string
	Amount string
}

type tableRow struct {
	Date     string
	Type     string
	Amount   string
	Category string
	Time     string
	Income   string
	Expense  string
}

func newDashboardData(r *core.Report) dashboardData {
	d := dashboardData{
		ID:        r.ID,
		Filename:  r.Filename,
		CreatedAt: r.CreatedAt.Format(time.DateTime),
		Display:   r.Display,
		Period:    string(r.Granularity),
		RowCount:  r.RowCount(),
		ChartsURL: "/reports/" + r.ID + "/charts",
	}
	for _, o := range periodOptions {
		d.Options = append(d.Options, periodOption{
			Value:    string(o.Value),
			Label:    o.Label,
			Selected: o.Value == r.Granularity,
		})
	}
	for _, p := range r.Periods {
		d.Periods = append(d.Periods, periodRow{
			Period:   p.Period,
			Revenue:  core.FormatAmount(p.TotalRevenue),
			Expenses: core.FormatAmount(p.TotalExpenses),
			Profit:   core.FormatAmount(p.Profit),
			Negative: p.Profit.IsNegative(),
		})
	}
	for _, c := range r.Categories {
		d.Categories = append(d.Categories, categoryRow{Name: c.Name, Amount: core.FormatAmount(c.Amount)})
	}
	for _, row := range r.Rows {
		d.Rows = append(d.Rows, tableRow{
			Date:     row.Date.String(),
			Type:     row.RawType,
			Amount:   core.FormatAmount(row.Amount),
			Category: row.Category,
			Time:     row.Time,
			Income:   optionalAmount(row.IncomeAmount),
			Expense:  optionalAmount(row.ExpenseAmount),
		})
	}
	return d
}

func optionalAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return core.FormatAmount(*d)
}
