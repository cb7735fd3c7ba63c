package budget

import (
	"testing"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"
)

func TestClassifyAdjustment_Increase(t *testing.T) {
	adj := ClassifyAdjustment(dec("100"), dec("110"))
	if !adj.Difference.Equal(dec("10")) {
		t.Fatalf("Difference = %s, want 10", adj.Difference)
	}
	if adj.Direction != model.DirectionIncrease {
		t.Fatalf("Direction = %s, want increase", adj.Direction)
	}
	if !adj.NeedsAdjustment {
		t.Fatal("NeedsAdjustment = false, want true (10 >= 5 and 10% >= 5%)")
	}
}

func TestClassifyAdjustment_RelativeThresholdOverrides(t *testing.T) {
	adj := ClassifyAdjustment(dec("1000"), dec("1030"))
	if !adj.Difference.Equal(dec("30")) {
		t.Fatalf("Difference = %s, want 30", adj.Difference)
	}
	if adj.NeedsAdjustment {
		t.Fatal("NeedsAdjustment = true, want false (3% < 5%)")
	}
}

func TestClassifyAdjustment_AbsoluteThresholdOverrides(t *testing.T) {
	// 50% relative change but only 4 currency units.
	adj := ClassifyAdjustment(dec("8"), dec("4"))
	if adj.NeedsAdjustment {
		t.Fatal("NeedsAdjustment = true, want false (|diff| 4 < 5)")
	}
	if adj.Direction != model.DirectionDecrease {
		t.Fatalf("Direction = %s, want decrease", adj.Direction)
	}
}

func TestClassifyAdjustment_ZeroCurrentSuppressed(t *testing.T) {
	adj := ClassifyAdjustment(dec("0"), dec("50"))
	if adj.NeedsAdjustment {
		t.Fatal("NeedsAdjustment = true for zero current value, want false")
	}
}

func TestClassifyAdjustment_Boundaries(t *testing.T) {
	// Exactly 5 units and exactly 5% both count.
	adj := ClassifyAdjustment(dec("100"), dec("95"))
	if !adj.NeedsAdjustment || adj.Direction != model.DirectionDecrease {
		t.Fatalf("ClassifyAdjustment(100, 95) = %+v, want decrease needing adjustment", adj)
	}
	adj = ClassifyAdjustment(dec("100"), dec("100"))
	if adj.NeedsAdjustment || adj.Direction != model.DirectionNone {
		t.Fatalf("ClassifyAdjustment(100, 100) = %+v, want no action", adj)
	}
}

func TestRecommend(t *testing.T) {
	rec := Recommend(model.BasisTrailingAverage, dec("200"), dec("150"))
	if rec.Basis != model.BasisTrailingAverage {
		t.Fatalf("Basis = %s, want trailing_average", rec.Basis)
	}
	if rec.Direction != model.DirectionDecrease {
		t.Fatalf("Direction = %s, want decrease", rec.Direction)
	}
	if !rec.Magnitude.Equal(dec("50")) {
		t.Fatalf("Magnitude = %s, want 50", rec.Magnitude)
	}

	quiet := Recommend(model.BasisCurrentConfigured, dec("1000"), dec("1030"))
	if quiet.Actionable() {
		t.Fatalf("Recommend below threshold = %+v, want direction none", quiet)
	}
	if !quiet.Magnitude.Equal(dec("30")) {
		t.Fatalf("Magnitude = %s, want 30", quiet.Magnitude)
	}
}
