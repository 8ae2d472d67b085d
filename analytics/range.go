package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

// DayLayout is the calendar-day format used for series keys and range parameters
const DayLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. Either bound may be absent.
// The zero value covers all time.
type DateRange struct {
	Start mo.Option[time.Time]
	End   mo.Option[time.Time]
}

// RangeLabel is the JSON form of a DateRange
type RangeLabel struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// AllTime returns an unbounded range
func AllTime() DateRange {
	return DateRange{Start: mo.None[time.Time](), End: mo.None[time.Time]()}
}

// Between returns the inclusive range [start, end]
func Between(start, end time.Time) DateRange {
	return DateRange{Start: mo.Some(start), End: mo.Some(end)}
}

// ParseDateRange parses optional YYYY-MM-DD bounds in the local time zone
func ParseDateRange(start, end string) (DateRange, error) {
	r := AllTime()

	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(DayLayout, s, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", start)
		}
		r.Start = mo.Some(t)
	}
	if e := strings.TrimSpace(end); e != "" {
		t, err := time.ParseInLocation(DayLayout, e, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", end)
		}
		r.End = mo.Some(t)
	}

	if s, ok := r.Start.Get(); ok {
		if e, ok := r.End.Get(); ok && dayNumber(s) > dayNumber(e) {
			return DateRange{}, fmt.Errorf("start date %s is after end date %s", dayKey(s), dayKey(e))
		}
	}
	return r, nil
}

// Contains reports whether t falls on a calendar day inside the range
func (r DateRange) Contains(t time.Time) bool {
	day := dayNumber(t)
	if s, ok := r.Start.Get(); ok && day < dayNumber(s) {
		return false
	}
	if e, ok := r.End.Get(); ok && day > dayNumber(e) {
		return false
	}
	return true
}

// Bounded reports whether both ends of the range are set
func (r DateRange) Bounded() bool {
	return r.Start.IsPresent() && r.End.IsPresent()
}

// Previous returns the range of equal length that ends the day before this one starts.
// It is only defined for bounded ranges.
func (r DateRange) Previous() (DateRange, bool) {
	if !r.Bounded() {
		return DateRange{}, false
	}
	start, end := r.Start.MustGet(), r.End.MustGet()
	days := daysBetween(start, end) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := start.AddDate(0, 0, -days)
	return Between(prevStart, prevEnd), true
}

// Key identifies the range in cache keys
func (r DateRange) Key() string {
	l := r.Label()
	start, end := l.Start, l.End
	if start == "" {
		start = "*"
	}
	if end == "" {
		end = "*"
	}
	return start + ".." + end
}

// Label returns the JSON form of the range
func (r DateRange) Label() RangeLabel {
	var l RangeLabel
	if s, ok := r.Start.Get(); ok {
		l.Start = dayKey(s)
	}
	if e, ok := r.End.Get(); ok {
		l.End = dayKey(e)
	}
	return l
}

// dayKey formats the calendar day of t in t's own location
func dayKey(t time.Time) string {
	return t.Format(DayLayout)
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
