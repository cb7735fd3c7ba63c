// Package budget implements the budget period engine: remaining days,
// ideal daily budget, adjustment classification and custom budget selection.
// Every function here is pure; callers supply "today" and all figures.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingRange indicates a custom cycle without a date range.
	ErrMissingRange = errors.New("budget: custom cycle requires a date range")
	// ErrInvalidRange indicates a range whose end precedes its start.
	ErrInvalidRange = errors.New("budget: range end is before start")
)

// DateFormat is the civil date layout used across the engine and storage.
const DateFormat = "2006-01-02"

// Cycle selects how a budget period is bounded.
type Cycle int

const (
	// CycleMonthly runs from the first to the last day of today's month.
	CycleMonthly Cycle = iota
	// CycleCustom runs over an explicit inclusive date range.
	CycleCustom
)

func (c Cycle) String() string {
	if c == CycleCustom {
		return "custom"
	}
	return "monthly"
}

// DateRange is an inclusive range of civil dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a validated range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD dates in loc.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(DateFormat, start, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("parsing start date: %w", err)
	}
	e, err := time.ParseInLocation(DateFormat, end, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("parsing end date: %w", err)
	}
	return NewDateRange(s, e)
}

// Validate checks Start <= End.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrMissingRange
	}
	if DaysBetween(r.Start, r.End) < 0 {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether day falls inside the range, bounds included.
func (r DateRange) Contains(day time.Time) bool {
	return DaysBetween(r.Start, day) >= 0 && DaysBetween(day, r.End) >= 0
}

// Days returns the inclusive length of the range.
func (r DateRange) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateFormat) + ".." + r.End.Format(DateFormat)
}

// Period is the input of one budget evaluation.
type Period struct {
	TotalBudget decimal.Decimal
	SpentToDate decimal.Decimal
	Cycle       Cycle
	Custom      *DateRange
}

// MonthlyPeriod returns a period bounded by the current calendar month.
func MonthlyPeriod(total, spent decimal.Decimal) Period {
	return Period{TotalBudget: total, SpentToDate: spent, Cycle: CycleMonthly}
}

// CustomPeriod returns a period bounded by r.
func CustomPeriod(total, spent decimal.Decimal, r DateRange) Period {
	return Period{TotalBudget: total, SpentToDate: spent, Cycle: CycleCustom, Custom: &r}
}

// Validate enforces the custom-cycle range invariant.
func (p Period) Validate() error {
	if p.Cycle != CycleCustom {
		return nil
	}
	if p.Custom == nil {
		return ErrMissingRange
	}
	return p.Custom.Validate()
}

// activeRange returns the custom range for custom cycles and nil otherwise.
func (p Period) activeRange() *DateRange {
	if p.Cycle == CycleCustom {
		return p.Custom
	}
	return nil
}

// Day truncates t to midnight of its civil date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns the civil date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return Day(now)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of civil days from a to b.
// Each time is read in its own location; wall-clock time is ignored.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Unix()
	return int((to - from) / secondsPerDay)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RemainingDays resolves the days left in the active period, today included.
// A nil custom range means the remainder of today's calendar month.
func RemainingDays(today time.Time, custom *DateRange) int {
	if custom == nil {
		return DaysInMonth(today) - today.Day() + 1
	}
	switch {
	case DaysBetween(custom.Start, today) < 0:
		return custom.Days()
	case DaysBetween(today, custom.End) < 0:
		return 0
	default:
		return DaysBetween(today, custom.End) + 1
	}
}

// TotalDays returns the full length of the active period.
func TotalDays(today time.Time, custom *DateRange) int {
	if custom == nil {
		return DaysInMonth(today)
	}
	return custom.Days()
}

// Bounds returns the first and last day of the active period.
func Bounds(today time.Time, custom *DateRange) DateRange {
	if custom != nil {
		return DateRange{Start: Day(custom.Start), End: Day(custom.End)}
	}
	y, m, _ := today.Date()
	loc := today.Location()
	return DateRange{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		End:   time.Date(y, m+1, 0, 0, 0, 0, 0, loc),
	}
}
