package model

import (
	"sort"
	"time"
)

// DateLayout is the canonical rendering of calendar dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive calendar-date interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to their calendar day and rejects start after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := CalendarDay(start)
	e := CalendarDay(end)
	if s.After(e) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	return NewDateRange(s, e)
}

// Contains reports whether the calendar day of d falls inside the range, both ends included.
func (r DateRange) Contains(d time.Time) bool {
	day := CalendarDay(d)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Years returns every calendar year touched by the range, ascending.
func (r DateRange) Years() []int {
	years := make([]int, 0, r.End.Year()-r.Start.Year()+1)
	for y := r.Start.Year(); y <= r.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// String renders the range as "start to end".
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
}

// CalendarDay returns midnight UTC of the wall-clock date t carries in its own location.
// 2023-12-31T22:00:00-03:00 is 2023-12-31, not the UTC instant's 2024-01-01.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortInts(v []int) { sort.Ints(v) }
