// Package pivot reshapes sparse per-category daily sums into the dense,
// date-indexed series the analytics charts draw from.
package pivot

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/shopspring/decimal"
)

// PaletteSize is the number of color slots categories cycle through.
const PaletteSize = 5

// CategoryKey describes one series in the legend.
type CategoryKey struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// Point is one calendar day with a value for every category.
type Point struct {
	Date   time.Time
	Values map[string]float64
	keys   []string
}

// Value returns the day's sum for a category key.
func (p Point) Value(key string) float64 {
	return p.Values[key]
}

// DateString returns the point's day as YYYY-MM-DD.
func (p Point) DateString() string {
	return p.Date.Format(model.DateLayout)
}

// MarshalJSON emits {"date": ..., <key>: <value>, ...} with keys in legend order.
func (p Point) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + dateKey + `":`)
	date, _ := json.Marshal(p.DateString())
	buf.Write(date)
	for _, key := range p.keys {
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Values[key])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Total is a category's sum over the whole range.
type Total struct {
	Key  string          `json:"key"`
	Name string          `json:"name"`
	Sum  decimal.Decimal `json:"sum"`
}

// Series is the chart-ready pivot of a set of category sums.
type Series struct {
	Categories []CategoryKey `json:"categories"`
	Points     []Point       `json:"points"`
	Totals     []Total       `json:"totals"`
}

// Empty reports whether the series has nothing to draw.
func (s Series) Empty() bool {
	return len(s.Categories) == 0 || len(s.Points) == 0
}

// Keys returns the category keys in legend order.
func (s Series) Keys() []string {
	keys := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		keys[i] = c.Key
	}
	return keys
}

// GrandTotal sums every category total.
func (s Series) GrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.Totals {
		sum = sum.Add(t.Sum)
	}
	return sum
}

// Build pivots sums into a dense daily series between from and to inclusive.
// Either bound being nil yields an empty series. Days without data for a
// category are zero.
func Build(sums []model.CategorySum, from, to *time.Time) Series {
	if from == nil || to == nil {
		return Series{}
	}

	start := truncateDay(*from)
	end := truncateDay(*to)

	keys := NewKeyAssigner()
	var categories []CategoryKey
	totals := make(map[string]decimal.Decimal)
	daily := make(map[string]map[string]decimal.Decimal)

	for _, s := range sums {
		key := keys.Key(s.CategoryName)
		if _, seen := totals[key]; !seen {
			categories = append(categories, CategoryKey{
				Key:   key,
				Name:  s.CategoryName,
				Color: (len(categories) % PaletteSize) + 1,
			})
			totals[key] = decimal.Zero
		}
		amount := decimal.NewFromFloat(s.Sum)
		totals[key] = totals[key].Add(amount)

		day, ok := parseDay(s.Date)
		if !ok {
			slog.Debug("skipping category sum with unparseable date", "date", s.Date, "category", s.CategoryName)
			continue
		}
		dayKey := day.Format(model.DateLayout)
		if daily[dayKey] == nil {
			daily[dayKey] = make(map[string]decimal.Decimal)
		}
		daily[dayKey][key] = daily[dayKey][key].Add(amount)
	}

	order := make([]string, len(categories))
	for i, c := range categories {
		order[i] = c.Key
	}

	var points []Point
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		values := make(map[string]float64, len(order))
		bucket := daily[day.Format(model.DateLayout)]
		for _, key := range order {
			values[key] = bucket[key].InexactFloat64()
		}
		points = append(points, Point{Date: day, Values: values, keys: order})
	}

	out := Series{
		Categories: categories,
		Points:     points,
		Totals:     make([]Total, len(categories)),
	}
	for i, c := range categories {
		out.Totals[i] = Total{Key: c.Key, Name: c.Name, Sum: totals[c.Key]}
	}
	return out
}

// parseDay reads the YYYY-MM-DD prefix of a backend date string.
func parseDay(s string) (time.Time, bool) {
	if len(s) < len(model.DateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// truncateDay drops the time of day and moves the date into UTC so that
// day stepping never crosses a DST boundary.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
