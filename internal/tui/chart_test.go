package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
	tuitest "github.com/Veraticus/autobudget/internal/tui/testing"
	"github.com/Veraticus/autobudget/internal/tui/themes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSeries(days int) pivot.Series {
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -(days - 1))

	var sums []model.CategorySum
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		sums = append(sums,
			model.CategorySum{Date: d.Format(model.DateLayout), CategoryName: "Food", Sum: 10},
			model.CategorySum{Date: d.Format(model.DateLayout), CategoryName: "Travel", Sum: 5},
		)
	}
	return pivot.Build(sums, &from, &to)
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		scale  float64
		width  int
		want   []int
	}{
		{name: "full width", values: []float64{1, 1}, scale: 2, width: 10, want: []int{5, 5}},
		{name: "half width", values: []float64{1, 0, 1}, scale: 4, width: 8, want: []int{2, 0, 2}},
		{name: "rounding keeps total", values: []float64{1, 1, 1}, scale: 3, width: 10, want: []int{3, 4, 3}},
		{name: "zero scale", values: []float64{1}, scale: 0, width: 10, want: []int{0}},
		{name: "negatives are ignored", values: []float64{-5, 2}, scale: 2, width: 4, want: []int{0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, segments(tt.values, tt.scale, tt.width))
		})
	}
}

func TestBucketPoints(t *testing.T) {
	series := createTestSeries(30)

	buckets := bucketPoints(series, 10)
	require.Len(t, buckets, 10)
	assert.Equal(t, "2024-03-02", buckets[0].label)
	assert.InDelta(t, 45, buckets[0].total, 0.001)

	// one row per day when there is room
	assert.Len(t, bucketPoints(series, 100), 30)
	assert.Nil(t, bucketPoints(pivot.Series{}, 10))
}

func TestShares(t *testing.T) {
	series := createTestSeries(3)

	got := shares(series)
	require.Len(t, got, 2)
	assert.Equal(t, "66.7", got[0].StringFixed(1))
	assert.Equal(t, "33.3", got[1].StringFixed(1))

	zero := pivot.Series{Totals: []pivot.Total{{Key: "a", Name: "A", Sum: decimal.Zero}}}
	assert.True(t, shares(zero)[0].IsZero())
}

func TestRenderCharts(t *testing.T) {
	series := createTestSeries(7)
	theme := themes.Default

	area := tuitest.StripANSI(renderArea(theme, series, 60, 20))
	assert.Len(t, strings.Split(area, "\n"), 7)
	assert.Contains(t, area, "2024-03-25")
	assert.Contains(t, area, "15.00")

	bars := tuitest.StripANSI(renderBars(theme, series, 60))
	assert.True(t, tuitest.ContainsInOrder(bars, "Food", "70.00", "Travel", "35.00"))

	pie := tuitest.StripANSI(renderPie(theme, series, 40))
	assert.True(t, tuitest.ContainsInOrder(pie, "Food", "66.7%", "Travel", "33.3%"))

	legend := tuitest.StripANSI(renderLegend(theme, series))
	assert.Equal(t, "█ Food  █ Travel", legend)
}

func TestChartView_Next(t *testing.T) {
	assert.Equal(t, ViewBar, ViewArea.Next())
	assert.Equal(t, ViewPie, ViewBar.Next())
	assert.Equal(t, ViewArea, ViewPie.Next())
	assert.Equal(t, "pie", ViewPie.String())
}
