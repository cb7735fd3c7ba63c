package review

import (
	"testing"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

func rec(dir model.Direction, mag int64) model.Recommendation {
	return model.Recommendation{Direction: dir, Magnitude: decimal.NewFromInt(mag)}
}

func TestFilters(t *testing.T) {
	reviews := []model.Review{
		{ClientName: "Padaria Central", Current: rec(model.DirectionNone, 2), Average: rec(model.DirectionNone, 1)},
		{ClientName: "Oficina Souza", Current: rec(model.DirectionIncrease, 10), Average: rec(model.DirectionNone, 0)},
		{ClientName: "Pet Shop", Current: rec(model.DirectionNone, 3), Average: rec(model.DirectionDecrease, 40)},
	}

	needs := FilterNeedsAdjustment(reviews)
	if len(needs) != 2 {
		t.Fatalf("FilterNeedsAdjustment = %d, want 2", len(needs))
	}

	byName := FilterByClient(reviews, "PADARIA")
	if len(byName) != 1 || byName[0].ClientName != "Padaria Central" {
		t.Fatalf("FilterByClient = %+v, want Padaria Central", byName)
	}

	SortByUrgency(reviews)
	if reviews[0].ClientName != "Pet Shop" || reviews[1].ClientName != "Oficina Souza" {
		t.Fatalf("SortByUrgency order = %s, %s; want Pet Shop, Oficina Souza", reviews[0].ClientName, reviews[1].ClientName)
	}
}

func TestDebouncer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := NewDebouncer(30 * time.Second)
	d.now = func() time.Time { return now }

	if !d.Allow() {
		t.Fatal("first trigger should be allowed")
	}
	now = now.Add(10 * time.Second)
	if d.Allow() {
		t.Fatal("trigger inside the gap should be refused")
	}
	now = now.Add(25 * time.Second)
	if !d.Allow() {
		t.Fatal("trigger after the gap should be allowed")
	}
	if !d.Last().Equal(now) {
		t.Fatalf("Last = %v, want %v", d.Last(), now)
	}
}
