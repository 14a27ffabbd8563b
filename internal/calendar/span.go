package calendar

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidWindow indicates a span whose end precedes its start.
var ErrInvalidWindow = errors.New("calendar: span end must not precede its start")

// Span is an inclusive range of days.
type Span struct {
	From Date
	To   Date
}

// Contains reports whether d lies within the span.
func (s Span) Contains(d Date) bool {
	return !d.Before(s.From) && !d.After(s.To)
}

// MonthSpan returns the span covering every day of the given month.
func MonthSpan(year int, month time.Month) Span {
	first := New(year, month, 1)
	return Span{From: first, To: New(year, month+1, 1).AddDays(-1)}
}

// Days expands the span into its individual days. When weekdays are supplied
// only the matching days are produced.
func (s Span) Days(weekdays ...time.Weekday) ([]Date, error) {
	if s.From.IsZero() || s.To.IsZero() || s.To.Before(s.From) {
		return nil, ErrInvalidWindow
	}

	filter := make(map[time.Weekday]struct{}, len(weekdays))
	for _, wd := range weekdays {
		filter[wd] = struct{}{}
	}

	days := make([]Date, 0)
	for current := s.From; !current.After(s.To); current = current.AddDays(1) {
		if len(filter) > 0 {
			if _, ok := filter[current.Weekday()]; !ok {
				continue
			}
		}
		days = append(days, current)
	}
	return days, nil
}

// WorkingDays returns the Monday to Friday days of the given month.
func WorkingDays(year int, month time.Month) []Date {
	days, _ := MonthSpan(year, month).Days(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	return days
}

// Normalize sorts dates ascending and removes duplicates. The input is not modified.
func Normalize(dates []Date) []Date {
	if len(dates) == 0 {
		return nil
	}
	out := make([]Date, len(dates))
	copy(out, dates)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	unique := out[:1]
	for _, d := range out[1:] {
		if d != unique[len(unique)-1] {
			unique = append(unique, d)
		}
	}
	return unique
}

// Strings renders dates in Layout.
func Strings(dates []Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
