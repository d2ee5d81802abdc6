package pivot

import (
	"fmt"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
)

// Preset is a named range ending today.
type Preset struct {
	Label string
	Days  int
}

// Presets are the quick ranges offered by the analytics screen.
var Presets = []Preset{
	{Label: "7 days", Days: 7},
	{Label: "30 days", Days: 30},
	{Label: "90 days", Days: 90},
	{Label: "180 days", Days: 180},
	{Label: "1 year", Days: 365},
}

// Range returns the inclusive bounds of the preset relative to now.
func (p Preset) Range(now time.Time) (from, to time.Time) {
	return LastDays(p.Days, now)
}

// LastDays returns the range of n days ending on now's date.
func LastDays(n int, now time.Time) (from, to time.Time) {
	to = truncateDay(now)
	if n < 1 {
		n = 1
	}
	from = to.AddDate(0, 0, -(n - 1))
	return from, to
}

// Label describes a range for display, using a preset name when the range
// matches one ending today.
func Label(from, to, now time.Time) string {
	from, to = truncateDay(from), truncateDay(to)
	if to.Equal(truncateDay(now)) {
		for _, p := range Presets {
			pf, _ := p.Range(now)
			if from.Equal(pf) {
				return "Last " + p.Label
			}
		}
	}
	return fmt.Sprintf("%s to %s", from.Format(model.DateLayout), to.Format(model.DateLayout))
}
