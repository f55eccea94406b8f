// Package charts derives chart-ready series from a report.
//
// The shapes are plain JSON so any front-end plotting library can draw them:
// a line of revenue and expenses over time, a category pie, an amount
// histogram split by type and an amount/time scatter.
package charts

import (
	"math"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// DefaultBins is the histogram resolution.
const DefaultBins = 20

const (
	TitleLine      = "Revenue and expenses over time"
	TitlePie       = "Structure by category"
	TitleHistogram = "Distribution of amounts"
	TitleScatter   = "Amount versus time"
)

// LinePoint is one sample of the time series; nil values are gaps.
type LinePoint struct {
	Date    string   `json:"date"`
	Revenue *float64 `json:"revenue"`
	Expense *float64 `json:"expense"`
}

// LineChart is the revenue/expense time series.
type LineChart struct {
	Title  string      `json:"title"`
	Points []LinePoint `json:"points"`
}

// PieSlice is one category share.
type PieSlice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// PieChart is the category breakdown.
type PieChart struct {
	Title  string     `json:"title"`
	Slices []PieSlice `json:"slices"`
	Total  float64    `json:"total"`
}

// Bin is one histogram bucket covering [From, To).
// The last bucket also includes its upper bound.
type Bin struct {
	From   float64                      `json:"from"`
	To     float64                      `json:"to"`
	Counts map[core.TransactionType]int `json:"counts"`
}

// Histogram is the amount distribution coloured by type.
type Histogram struct {
	Title string `json:"title"`
	Bins  []Bin  `json:"bins"`
}

// ScatterPoint pairs an amount with the numeric time of its row.
type ScatterPoint struct {
	Amount float64              `json:"amount"`
	Time   float64              `json:"time"`
	Type   core.TransactionType `json:"type"`
}

// Scatter is the amount/time correlation chart.
type Scatter struct {
	Title  string         `json:"title"`
	Points []ScatterPoint `json:"points"`
}

// Dashboard bundles every chart of a report.
type Dashboard struct {
	ReportID  string    `json:"report_id"`
	Line      LineChart `json:"line"`
	Pie       PieChart  `json:"pie"`
	Histogram Histogram `json:"histogram"`
	Scatter   Scatter   `json:"scatter"`
}

// Build derives all four charts.
func Build(r *core.Report) Dashboard {
	return Dashboard{
		ReportID:  r.ID,
		Line:      Line(r),
		Pie:       Pie(r),
		Histogram: NewHistogram(r, DefaultBins),
		Scatter:   NewScatter(r),
	}
}

// Line converts the report series, keeping gaps for the missing side.
func Line(r *core.Report) LineChart {
	chart := LineChart{Title: TitleLine, Points: make([]LinePoint, 0, len(r.Series))}
	for _, p := range r.Series {
		lp := LinePoint{Date: p.Date.ISO()}
		if p.Revenue != nil {
			v := toFloat(*p.Revenue)
			lp.Revenue = &v
		}
		if p.Expense != nil {
			v := toFloat(*p.Expense)
			lp.Expense = &v
		}
		chart.Points = append(chart.Points, lp)
	}
	return chart
}

// Pie converts category totals to slices. Percentages are computed on the
// sum of absolute values so negative categories cannot push shares past 100.
func Pie(r *core.Report) PieChart {
	chart := PieChart{Title: TitlePie, Slices: make([]PieSlice, 0, len(r.Categories))}
	total, absTotal := decimal.Zero, decimal.Zero
	for _, c := range r.Categories {
		total = total.Add(c.Amount)
		absTotal = absTotal.Add(c.Amount.Abs())
	}
	for _, c := range r.Categories {
		slice := PieSlice{Label: c.Name, Value: toFloat(c.Amount)}
		if absTotal.IsPositive() {
			slice.Percent = toFloat(c.Amount.Abs().Mul(hundred).Div(absTotal).Round(2))
		}
		chart.Slices = append(chart.Slices, slice)
	}
	chart.Total = toFloat(total)
	return chart
}

// NewHistogram spreads row amounts over equal-width bins.
// A batch whose amounts are all equal gets a single unit-wide bin.
func NewHistogram(r *core.Report, bins int) Histogram {
	h := Histogram{Title: TitleHistogram}
	if len(r.Rows) == 0 || bins <= 0 {
		return h
	}

	lo, hi := math.MaxFloat64, -math.MaxFloat64
	values := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		v := toFloat(row.Amount)
		values[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		bins = 1
		if hi < math.MaxFloat64 {
			hi = lo + 1
		} else {
			lo = hi - 1
		}
	}
	// Scaled before subtracting: hi-lo overflows when both ends are near MaxFloat64.
	width := hi/float64(bins) - lo/float64(bins)

	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i] = Bin{
			From:   edge(lo, hi, i, bins),
			To:     edge(lo, hi, i+1, bins),
			Counts: map[core.TransactionType]int{},
		}
	}

	for i, v := range values {
		pos := v/width - lo/width
		var idx int
		switch {
		case !(pos < float64(bins)):
			idx = bins - 1
		case pos > 0:
			idx = int(pos)
		}
		h.Bins[idx].Counts[r.Rows[i].Type]++
	}
	return h
}

// edge is the i-th of n equal steps between lo and hi.
func edge(lo, hi float64, i, n int) float64 {
	if i >= n {
		return hi
	}
	t := float64(i) / float64(n)
	return lo*(1-t) + hi*t
}

var hundred = decimal.NewFromInt(100)

// toFloat converts d for JSON output. Magnitudes beyond float64 saturate at
// ±MaxFloat64 since encoding/json rejects infinities.
func toFloat(d decimal.Decimal) float64 {
	v := d.InexactFloat64()
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	case math.IsNaN(v):
		return 0
	}
	return v
}

// NewScatter pairs amount with time for rows whose time is numeric.
func NewScatter(r *core.Report) Scatter {
	s := Scatter{Title: TitleScatter}
	for _, row := range r.Rows {
		tv, ok := row.TimeValue()
		if !ok {
			continue
		}
		s.Points = append(s.Points, ScatterPoint{
			Amount: toFloat(row.Amount),
			Time:   tv,
			Type:   row.Type,
		})
	}
	return s
}

// Total returns the number of rows counted in the bin.
func (b Bin) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}
