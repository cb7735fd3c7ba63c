package budget

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := NewDateRange(mustDate(t, start), mustDate(t, end))
	if err != nil {
		t.Fatalf("NewDateRange(%s, %s): %v", start, end, err)
	}
	return r
}

func TestRemainingDays_Monthly(t *testing.T) {
	cases := []struct {
		today string
		want  int
	}{
		{"2025-06-20", 11},
		{"2025-06-01", 30},
		{"2025-06-30", 1},
		{"2024-02-29", 1},
		{"2025-02-01", 28},
		{"2025-12-31", 1},
	}
	for _, c := range cases {
		if got := RemainingDays(mustDate(t, c.today), nil); got != c.want {
			t.Errorf("RemainingDays(%s, nil) = %d, want %d", c.today, got, c.want)
		}
	}
}

func TestRemainingDays_CustomSingleDay(t *testing.T) {
	r := mustRange(t, "2025-03-10", "2025-03-10")
	if got := RemainingDays(mustDate(t, "2025-03-10"), &r); got != 1 {
		t.Fatalf("RemainingDays on a one-day range = %d, want 1", got)
	}
}

func TestRemainingDays_CustomBeforeStart(t *testing.T) {
	r := mustRange(t, "2025-03-10", "2025-03-19")
	if got := RemainingDays(mustDate(t, "2025-03-01"), &r); got != 10 {
		t.Fatalf("RemainingDays before start = %d, want full period 10", got)
	}
}

func TestRemainingDays_CustomAfterEnd(t *testing.T) {
	r := mustRange(t, "2025-03-10", "2025-03-19")
	if got := RemainingDays(mustDate(t, "2025-03-20"), &r); got != 0 {
		t.Fatalf("RemainingDays after end = %d, want 0", got)
	}
}

func TestRemainingDays_CustomInside(t *testing.T) {
	r := mustRange(t, "2025-03-10", "2025-04-09")
	if got := RemainingDays(mustDate(t, "2025-03-31"), &r); got != 10 {
		t.Fatalf("RemainingDays inside range = %d, want 10", got)
	}
}

func TestRemainingDays_IgnoresTimeOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	r := mustRange(t, "2025-03-10", "2025-03-12")
	late := time.Date(2025, 3, 12, 23, 59, 0, 0, loc)
	if got := RemainingDays(late, &r); got != 1 {
		t.Fatalf("RemainingDays late on the last day = %d, want 1", got)
	}
}

func TestToday_UsesCivilTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 01:30 UTC on the 1st is still the 31st in Sao Paulo (UTC-3).
	now := time.Date(2025, 8, 1, 1, 30, 0, 0, time.UTC)
	today := Today(now, loc)
	if today.Day() != 31 || today.Month() != time.July {
		t.Fatalf("Today = %s, want 2025-07-31", today.Format(DateFormat))
	}
	if got := RemainingDays(today, nil); got != 1 {
		t.Fatalf("RemainingDays = %d, want 1", got)
	}
}

func TestPeriodValidate(t *testing.T) {
	p := Period{Cycle: CycleCustom}
	if err := p.Validate(); !errors.Is(err, ErrMissingRange) {
		t.Fatalf("Validate without range = %v, want ErrMissingRange", err)
	}

	bad := DateRange{Start: mustDate(t, "2025-05-10"), End: mustDate(t, "2025-05-01")}
	p.Custom = &bad
	if err := p.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Validate with reversed range = %v, want ErrInvalidRange", err)
	}

	if err := (Period{Cycle: CycleMonthly}).Validate(); err != nil {
		t.Fatalf("monthly Validate = %v, want nil", err)
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2025-01-01", "2025-01-31", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if r.Days() != 31 {
		t.Fatalf("Days = %d, want 31", r.Days())
	}
	if _, err := ParseDateRange("2025-01-31", "2025-01-01", time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("reversed ParseDateRange err = %v, want ErrInvalidRange", err)
	}
	if _, err := ParseDateRange("01/31/2025", "2025-02-01", time.UTC); err == nil {
		t.Fatal("ParseDateRange accepted a malformed date")
	}
}

func TestBounds(t *testing.T) {
	b := Bounds(mustDate(t, "2024-02-15"), nil)
	if got := b.Start.Format(DateFormat); got != "2024-02-01" {
		t.Fatalf("monthly start = %s, want 2024-02-01", got)
	}
	if got := b.End.Format(DateFormat); got != "2024-02-29" {
		t.Fatalf("monthly end = %s, want 2024-02-29", got)
	}
}

func TestDaysBetween_LongRange(t *testing.T) {
	from := mustDate(t, "2025-01-01")
	to := mustDate(t, "9999-12-31")
	if got := DaysBetween(from, to); got != 2912807 {
		t.Fatalf("DaysBetween = %d, want 2912807", got)
	}
	if got := DaysBetween(to, from); got != -2912807 {
		t.Fatalf("DaysBetween reversed = %d, want -2912807", got)
	}
	if got := RemainingDays(from, &DateRange{Start: from, End: to}); got != 2912808 {
		t.Fatalf("RemainingDays = %d, want 2912808", got)
	}
}
