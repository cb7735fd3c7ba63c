package budget

import (
	"errors"
	"testing"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"
)

func TestEvaluate_MonthlyScenario(t *testing.T) {
	ev, err := Evaluate(Input{
		Period:             MonthlyPeriod(dec("3000"), dec("1500")),
		Today:              mustDate(t, "2025-06-20"),
		CurrentDailyBudget: dec("100"),
		TrailingAverage:    dec("140"),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.RemainingDays != 11 {
		t.Fatalf("RemainingDays = %d, want 11", ev.RemainingDays)
	}
	if !ev.IdealDailyBudget.Equal(dec("136.36")) {
		t.Fatalf("IdealDailyBudget = %s, want 136.36", ev.IdealDailyBudget)
	}
	if ev.Current.Direction != model.DirectionIncrease {
		t.Fatalf("Current direction = %s, want increase", ev.Current.Direction)
	}
	// 140 vs 136.36: 3.64 below the absolute threshold.
	if ev.Average.Actionable() {
		t.Fatalf("Average = %+v, want no action", ev.Average)
	}
	if !ev.NeedsAdjustment() {
		t.Fatal("NeedsAdjustment = false, want true")
	}
	if ev.TotalDays != 30 {
		t.Fatalf("TotalDays = %d, want 30", ev.TotalDays)
	}
}

func TestEvaluate_CustomElapsed(t *testing.T) {
	r := mustRange(t, "2025-06-01", "2025-06-10")
	ev, err := Evaluate(Input{
		Period:             CustomPeriod(dec("1000"), dec("400"), r),
		Today:              mustDate(t, "2025-06-11"),
		CurrentDailyBudget: dec("60"),
		TrailingAverage:    dec("60"),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.RemainingDays != 0 || !ev.IdealDailyBudget.IsZero() {
		t.Fatalf("elapsed period = %d days, ideal %s; want 0 and 0", ev.RemainingDays, ev.IdealDailyBudget)
	}
	if ev.Current.Direction != model.DirectionDecrease {
		t.Fatalf("Current direction = %s, want decrease", ev.Current.Direction)
	}
}

func TestEvaluate_RejectsMalformedCustomCycle(t *testing.T) {
	_, err := Evaluate(Input{Period: Period{Cycle: CycleCustom}, Today: mustDate(t, "2025-06-11")})
	if !errors.Is(err, ErrMissingRange) {
		t.Fatalf("Evaluate err = %v, want ErrMissingRange", err)
	}
}
