package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/Veraticus/autobudget/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ChartView selects how the analytics series is drawn.
type ChartView int

// Chart views, in the order `v` cycles through them.
const (
	ViewArea ChartView = iota
	ViewBar
	ViewPie
)

func (v ChartView) String() string {
	switch v {
	case ViewBar:
		return "bar"
	case ViewPie:
		return "pie"
	default:
		return "area"
	}
}

// Next returns the view after v.
func (v ChartView) Next() ChartView {
	return (v + 1) % 3
}

const (
	chartLabelWidth  = 18
	chartAmountWidth = 12
	chartBlock       = "█"
)

// bucket is a run of consecutive days drawn as one chart row.
type bucket struct {
	label  string
	values []float64
	total  float64
}

// bucketPoints folds the series into at most rows buckets.
func bucketPoints(series pivot.Series, rows int) []bucket {
	if len(series.Points) == 0 || rows < 1 {
		return nil
	}
	size := int(math.Ceil(float64(len(series.Points)) / float64(rows)))
	keys := series.Keys()

	var out []bucket
	for start := 0; start < len(series.Points); start += size {
		end := min(start+size, len(series.Points))
		b := bucket{
			label:  series.Points[start].Date.Format(model.DateLayout),
			values: make([]float64, len(keys)),
		}
		for _, p := range series.Points[start:end] {
			for i, key := range keys {
				b.values[i] += p.Value(key)
				b.total += p.Value(key)
			}
		}
		out = append(out, b)
	}
	return out
}

// segments splits width cells across values so that the drawn lengths add
// up to the rounded total.
func segments(values []float64, scale float64, width int) []int {
	cells := make([]int, len(values))
	if scale <= 0 {
		return cells
	}
	var cum float64
	prev := 0
	for i, v := range values {
		cum += math.Max(v, 0)
		end := int(math.Round(cum / scale * float64(width)))
		end = min(end, width)
		cells[i] = max(end-prev, 0)
		prev = max(end, prev)
	}
	return cells
}

func renderArea(theme themes.Theme, series pivot.Series, width, rows int) string {
	buckets := bucketPoints(series, rows)
	barWidth := max(width-len(model.DateLayout)-chartAmountWidth-2, 10)

	var peak float64
	for _, b := range buckets {
		peak = math.Max(peak, b.total)
	}

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		var bar strings.Builder
		for i, n := range segments(b.values, peak, barWidth) {
			if n == 0 {
				continue
			}
			style := lipgloss.NewStyle().Foreground(theme.ChartColor(series.Categories[i].Color))
			bar.WriteString(style.Render(strings.Repeat(chartBlock, n)))
		}
		drawn := lipgloss.Width(bar.String())
		lines = append(lines, fmt.Sprintf("%s %s%s %*.2f",
			b.label, bar.String(), strings.Repeat(" ", max(barWidth-drawn, 0)), chartAmountWidth, b.total))
	}
	return strings.Join(lines, "\n")
}

func renderBars(theme themes.Theme, series pivot.Series, width int) string {
	barWidth := max(width-chartLabelWidth-chartAmountWidth-2, 10)

	peak := decimal.Zero
	for _, t := range series.Totals {
		peak = decimal.Max(peak, t.Sum)
	}

	lines := make([]string, 0, len(series.Totals))
	for i, t := range series.Totals {
		n := 0
		if peak.IsPositive() {
			n = int(t.Sum.Div(peak).Mul(decimal.NewFromInt(int64(barWidth))).Round(0).IntPart())
		}
		style := lipgloss.NewStyle().Foreground(theme.ChartColor(series.Categories[i].Color))
		bar := style.Render(strings.Repeat(chartBlock, max(n, 0)))
		lines = append(lines, fmt.Sprintf("%s %s%s %*s",
			pad(t.Name, chartLabelWidth), bar, strings.Repeat(" ", max(barWidth-n, 0)),
			chartAmountWidth, t.Sum.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// shares returns each total's percentage of the grand total, rounded to one
// decimal place. All zero when nothing was spent.
func shares(series pivot.Series) []decimal.Decimal {
	out := make([]decimal.Decimal, len(series.Totals))
	grand := series.GrandTotal()
	if grand.IsZero() {
		return out
	}
	for i, t := range series.Totals {
		out[i] = t.Sum.Div(grand).Mul(decimal.NewFromInt(100)).Round(1)
	}
	return out
}

func renderPie(theme themes.Theme, series pivot.Series, width int) string {
	stripWidth := max(width-2, 10)
	pct := shares(series)

	values := make([]float64, len(pct))
	for i, p := range pct {
		values[i] = p.InexactFloat64()
	}

	var strip strings.Builder
	for i, n := range segments(values, 100, stripWidth) {
		style := lipgloss.NewStyle().Foreground(theme.ChartColor(series.Categories[i].Color))
		strip.WriteString(style.Render(strings.Repeat(chartBlock, n)))
	}

	lines := []string{strip.String(), ""}
	for i, t := range series.Totals {
		swatch := lipgloss.NewStyle().Foreground(theme.ChartColor(series.Categories[i].Color)).Render(chartBlock)
		lines = append(lines, fmt.Sprintf("%s %s %6s%% %*s",
			swatch, pad(t.Name, chartLabelWidth), pct[i].StringFixed(1), chartAmountWidth, t.Sum.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

func renderLegend(theme themes.Theme, series pivot.Series) string {
	items := make([]string, 0, len(series.Categories))
	for _, c := range series.Categories {
		swatch := lipgloss.NewStyle().Foreground(theme.ChartColor(c.Color)).Render(chartBlock)
		items = append(items, swatch+" "+c.Name)
	}
	return strings.Join(items, "  ")
}
