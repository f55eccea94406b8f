package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"findash/internal/core"
	"findash/internal/summary"
)

const sample = "Дата;Тип;Сумма;Категория;Время\n" +
	"01.01.2024;Доход;1000;Зарплата;10\n" +
	"02.01.2024;Расход;400;Еда;12:30\n" +
	"03.01.2024;Расход;100;Еда;утро\n" +
	"04.01.2024;Перевод;500;Перевод;9\n"

func mustReport(t *testing.T, csv string) *core.Report {
	t.Helper()
	r, err := summary.New().Summarize(context.Background(), summary.Upload{Data: []byte(csv)})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	return r
}

func TestLineKeepsGaps(t *testing.T) {
	line := Line(mustReport(t, sample))
	if len(line.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(line.Points))
	}
	p := line.Points[0]
	if p.Date != "2024-01-01" || p.Revenue == nil || *p.Revenue != 1000 || p.Expense != nil {
		t.Fatalf("unexpected first point: %+v", p)
	}
	if q := line.Points[3]; q.Revenue != nil || q.Expense != nil {
		t.Fatalf("unknown type must be a gap on both lines: %+v", q)
	}
}

func TestPieShares(t *testing.T) {
	pie := Pie(mustReport(t, sample))
	if len(pie.Slices) != 3 {
		t.Fatalf("expected 3 slices, got %+v", pie.Slices)
	}
	if pie.Total != 2000 {
		t.Fatalf("total = %v", pie.Total)
	}
	var sum float64
	for _, s := range pie.Slices {
		sum += s.Percent
	}
	if sum < 99.99 || sum > 100.01 {
		t.Fatalf("percentages sum to %v", sum)
	}
	if pie.Slices[1].Label != "Еда" || pie.Slices[1].Value != 500 || pie.Slices[1].Percent != 25 {
		t.Fatalf("unexpected food slice: %+v", pie.Slices[1])
	}
}

func TestHistogramCountsEveryRow(t *testing.T) {
	r := mustReport(t, sample)
	h := NewHistogram(r, DefaultBins)
	if len(h.Bins) != DefaultBins {
		t.Fatalf("expected %d bins, got %d", DefaultBins, len(h.Bins))
	}
	total := 0
	for _, b := range h.Bins {
		total += b.Total()
	}
	if total != r.RowCount() {
		t.Fatalf("bins hold %d rows, want %d", total, r.RowCount())
	}
	if last := h.Bins[len(h.Bins)-1]; last.To != 1000 || last.Counts[core.Income] != 1 {
		t.Fatalf("max amount must land in last bin: %+v", last)
	}
	if first := h.Bins[0]; first.From != 100 || first.Counts[core.Expense] != 1 {
		t.Fatalf("min amount must land in first bin: %+v", first)
	}
}

func TestHistogramDegenerate(t *testing.T) {
	empty := NewHistogram(mustReport(t, "Дата;Тип;Сумма;Категория;Время\n"), DefaultBins)
	if len(empty.Bins) != 0 {
		t.Fatalf("expected no bins for empty report")
	}
	same := NewHistogram(mustReport(t, "Дата;Тип;Сумма;Категория;Время\n01.01.2024;Доход;5;a;1\n02.01.2024;Расход;5;a;1\n"), DefaultBins)
	if len(same.Bins) != 1 || same.Bins[0].Total() != 2 {
		t.Fatalf("expected one bin with both rows: %+v", same.Bins)
	}
}

func TestScatterSkipsNonNumericTime(t *testing.T) {
	s := NewScatter(mustReport(t, sample))
	if len(s.Points) != 3 {
		t.Fatalf("expected 3 points, got %+v", s.Points)
	}
	if s.Points[1].Time != 12.5 || s.Points[1].Type != core.Expense {
		t.Fatalf("unexpected clock conversion: %+v", s.Points[1])
	}
}

func TestBuildJSON(t *testing.T) {
	d := Build(mustReport(t, sample))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"line"`, `"pie"`, `"histogram"`, `"scatter"`, `"expense":null`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("chart JSON missing %s: %s", key, b)
		}
	}
}

func TestHistogramCountsEveryRowAcrossRanges(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400)
	tests := []struct {
		name    string
		amounts []string
	}{
		{name: "mixed signs", amounts: []string{"-250", "0", "13,5", "999.99", "-0.01"}},
		{name: "all negative", amounts: []string{"-1", "-2", "-300"}},
		{name: "beyond float64", amounts: []string{huge, "5"}},
		{name: "beyond float64 both signs", amounts: []string{huge, "-" + huge, "7"}},
		{name: "beyond float64 only", amounts: []string{huge, huge}},
		{name: "float64 extremes", amounts: []string{"1" + strings.Repeat("0", 308), "-1" + strings.Repeat("0", 308)}},
		{name: "tiny spread", amounts: []string{"0.0000000000000000000001", "0.0000000000000000000002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			b.WriteString("Дата;Тип;Сумма;Категория;Время\n")
			for i, a := range tt.amounts {
				typ := "Доход"
				if i%2 == 1 {
					typ = "Расход"
				}
				fmt.Fprintf(&b, "0%d.01.2024;%s;%s;c%d;%d\n", i+1, typ, a, i, i)
			}
			r := mustReport(t, b.String())

			h := NewHistogram(r, DefaultBins)
			total := 0
			for _, bin := range h.Bins {
				total += bin.Total()
			}
			if total != len(tt.amounts) {
				t.Fatalf("bins hold %d rows, want %d", total, len(tt.amounts))
			}

			if _, err := json.Marshal(Build(r)); err != nil {
				t.Fatalf("charts must serialize: %v", err)
			}
		})
	}
}

func TestChartsSaturateOversizedAmounts(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400)
	r := mustReport(t, "Дата;Тип;Сумма;Категория;Время\n"+
		"01.01.2024;Доход;"+huge+";a;1\n"+
		"02.01.2024;Расход;5;b;2\n")

	line := Line(r)
	if v := *line.Points[0].Revenue; v != math.MaxFloat64 {
		t.Fatalf("revenue = %v, want MaxFloat64", v)
	}
	pie := Pie(r)
	if pie.Total != math.MaxFloat64 || pie.Slices[0].Percent != 100 || pie.Slices[1].Percent != 0 {
		t.Fatalf("unexpected pie: %+v", pie)
	}
	h := NewHistogram(r, DefaultBins)
	if h.Bins[0].Counts[core.Expense] != 1 || h.Bins[DefaultBins-1].Counts[core.Income] != 1 {
		t.Fatalf("extremes must land in the outer bins: first=%+v last=%+v", h.Bins[0], h.Bins[DefaultBins-1])
	}
	for _, bin := range h.Bins {
		if math.IsInf(bin.From, 0) || math.IsInf(bin.To, 0) || math.IsNaN(bin.From) || math.IsNaN(bin.To) {
			t.Fatalf("non-finite bin edge: %+v", bin)
		}
	}
}
