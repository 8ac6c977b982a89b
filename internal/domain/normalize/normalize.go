// Package normalize coerces the date column of a table, filters it to a range and sorts it.
package normalize

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
)

// DefaultDateColumn is the reference-date column of the stored-energy datasets.
const DefaultDateColumn = "ear_data"

// Accepted date renderings, tried in order.
var layouts = []string{
	model.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"02/01/2006",
}

// Report counts what happened to the rows of one table.
type Report struct {
	Input      int
	Unparsable int
	OutOfRange int
	Kept       int
}

// ParseDate parses a raw date cell using the accepted layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Table returns a new table holding only the rows of t whose date column parses and falls in rng,
// sorted ascending by date with the date rendered as YYYY-MM-DD. Non-finite numbers become null.
func Table(t *model.Table, dateColumn string, rng model.DateRange) (*model.Table, Report, error) {
	rep := Report{Input: len(t.Rows)}
	idx := t.ColumnIndex(dateColumn)
	if idx < 0 {
		return nil, rep, ErrMissingDateColumn
	}

	type dated struct {
		at   time.Time
		vals []model.Value
	}
	kept := make([]dated, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row) {
			rep.Unparsable++
			continue
		}
		at, ok := ParseDate(row[idx].Text())
		if !ok {
			rep.Unparsable++
			continue
		}
		day := model.CalendarDay(at)
		if !rng.Contains(day) {
			rep.OutOfRange++
			continue
		}
		vals := Sanitize(row)
		vals[idx] = model.StringValue(day.Format(model.DateLayout))
		kept = append(kept, dated{at: day, vals: vals})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].at.Before(kept[j].at)
	})

	out := &model.Table{Columns: t.Columns, Rows: make([][]model.Value, len(kept))}
	for i, d := range kept {
		out.Rows[i] = d.vals
	}
	rep.Kept = len(kept)
	return out, rep, nil
}

// Sanitize returns a copy of row with non-finite numbers replaced by null.
func Sanitize(row []model.Value) []model.Value {
	out := make([]model.Value, len(row))
	for i, v := range row {
		if v.Kind() == model.KindNumber && (math.IsNaN(v.Num()) || math.IsInf(v.Num(), 0)) {
			out[i] = model.Null()
			continue
		}
		out[i] = v
	}
	return out
}
