package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestSpanDays(t *testing.T) {
	t.Parallel()

	t.Run("expands inclusive range", func(t *testing.T) {
		t.Parallel()
		span := Span{From: MustParse("2026-02-27"), To: MustParse("2026-03-02")}
		days, err := span.Days()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
		got := Strings(days)
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("filters by weekday", func(t *testing.T) {
		t.Parallel()
		span := Span{From: MustParse("2026-02-09"), To: MustParse("2026-02-22")}
		days, err := span.Days(time.Monday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(days) != 2 || days[0] != MustParse("2026-02-09") || days[1] != MustParse("2026-02-16") {
			t.Fatalf("unexpected Mondays: %v", days)
		}
	})

	t.Run("rejects reversed window", func(t *testing.T) {
		t.Parallel()
		span := Span{From: MustParse("2026-02-10"), To: MustParse("2026-02-09")}
		if _, err := span.Days(); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})
}

func TestMonthSpan(t *testing.T) {
	t.Parallel()

	span := MonthSpan(2028, time.February)
	if span.From != MustParse("2028-02-01") || span.To != MustParse("2028-02-29") {
		t.Fatalf("unexpected leap February span: %v", span)
	}
	december := MonthSpan(2026, time.December)
	if december.To != MustParse("2026-12-31") {
		t.Fatalf("unexpected December end: %s", december.To)
	}
	if !span.Contains(MustParse("2028-02-15")) || span.Contains(MustParse("2028-03-01")) {
		t.Fatalf("unexpected Contains result")
	}
}

func TestWorkingDays(t *testing.T) {
	t.Parallel()

	days := WorkingDays(2026, time.February)
	if len(days) != 20 {
		t.Fatalf("expected 20 working days in February 2026, got %d", len(days))
	}
	for _, d := range days {
		if d.IsWeekend() {
			t.Fatalf("unexpected weekend day %s", d)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := []Date{MustParse("2026-02-12"), MustParse("2026-02-10"), MustParse("2026-02-12")}
	out := Normalize(in)
	if len(out) != 2 || out[0] != MustParse("2026-02-10") || out[1] != MustParse("2026-02-12") {
		t.Fatalf("unexpected normalized dates: %v", out)
	}
	if in[0] != MustParse("2026-02-12") {
		t.Fatalf("input was modified")
	}
	if Normalize(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}
