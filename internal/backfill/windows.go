package backfill

import (
	"time"

	"github.com/okian/gridlake/internal/domain/model"
)

// YearWindows splits rng into calendar-year windows, clamping the first and last to rng.
func YearWindows(rng model.DateRange) []model.DateRange {
	var out []model.DateRange
	for year := rng.Start.Year(); year <= rng.End.Year(); year++ {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		if start.Before(rng.Start) {
			start = rng.Start
		}
		if end.After(rng.End) {
			end = rng.End
		}
		out = append(out, model.DateRange{Start: start, End: end})
	}
	return out
}
