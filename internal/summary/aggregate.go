package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// Aggregation is everything derived from a normalized batch.
type Aggregation struct {
	Summary    core.Summary
	Rows       []core.AnnotatedTransaction
	Series     []core.SeriesPoint
	Categories []core.CategoryAmount
	Periods    []core.Summary
}

// Aggregate sums revenue and expenses and derives the chart inputs.
// Rows of unknown type are kept in Rows, Series and Categories but add
// nothing to either total.
func Aggregate(txs []core.Transaction, g core.Granularity) Aggregation {
	agg := Aggregation{
		Rows:   make([]core.AnnotatedTransaction, 0, len(txs)),
		Series: make([]core.SeriesPoint, 0, len(txs)),
	}

	revenue, expenses := decimal.Zero, decimal.Zero
	byCategory := map[string]int{}
	for _, tx := range txs {
		at := core.Annotate(tx)
		agg.Rows = append(agg.Rows, at)
		agg.Series = append(agg.Series, core.SeriesPoint{
			Date:    tx.Date,
			Revenue: at.IncomeAmount,
			Expense: at.ExpenseAmount,
		})

		switch tx.Type {
		case core.Income:
			revenue = revenue.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}

		if idx, ok := byCategory[tx.Category]; ok {
			agg.Categories[idx].Amount = agg.Categories[idx].Amount.Add(tx.Amount)
		} else {
			byCategory[tx.Category] = len(agg.Categories)
			agg.Categories = append(agg.Categories, core.CategoryAmount{Name: tx.Category, Amount: tx.Amount})
		}
	}

	agg.Summary = newSummary(core.PeriodOverall, revenue, expenses)
	agg.Periods = Periods(txs, g)
	return agg
}

// Periods buckets transactions by calendar period, chronologically.
// GranularityOverall yields nil: the overall summary already covers it.
func Periods(txs []core.Transaction, g core.Granularity) []core.Summary {
	if g == "" || g == core.GranularityOverall {
		return nil
	}
	type bucket struct {
		start             core.Date
		key               string
		revenue, expenses decimal.Decimal
	}
	buckets := map[string]*bucket{}
	for _, tx := range txs {
		key := g.BucketKey(tx.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: g.BucketStart(tx.Date), key: key, revenue: decimal.Zero, expenses: decimal.Zero}
			buckets[key] = b
		}
		switch tx.Type {
		case core.Income:
			b.revenue = b.revenue.Add(tx.Amount)
		case core.Expense:
			b.expenses = b.expenses.Add(tx.Amount)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].start.Before(ordered[j].start.Time)
	})

	out := make([]core.Summary, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, newSummary(b.key, b.revenue, b.expenses))
	}
	return out
}

func newSummary(period string, revenue, expenses decimal.Decimal) core.Summary {
	return core.Summary{
		Period:        period,
		TotalRevenue:  revenue,
		TotalExpenses: expenses,
		Profit:        revenue.Sub(expenses),
	}
}
