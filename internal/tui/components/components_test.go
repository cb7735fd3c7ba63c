package components

import (
	"strings"
	"testing"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func TestLayoutRowSumsToTotal(t *testing.T) {
	widths := LayoutRow(80, 3)
	if len(widths) != 3 {
		t.Fatalf("len = %d, want 3", len(widths))
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 80 {
		t.Fatalf("sum = %d, want 80", sum)
	}
	if widths[0] != 27 || widths[2] != 26 {
		t.Fatalf("widths = %v, want [27 27 26]", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Contas", Value: "12"},
		{Label: "Ajustar", Value: "3", Delta: "25%"},
	}, 60)
	if got := lipgloss.Width(row); got != 60 {
		t.Fatalf("width = %d, want 60", got)
	}
}

func TestContentCardTitle(t *testing.T) {
	card := ContentCard("Detalhes", "body", 30, true)
	if !strings.Contains(card, "Detalhes") || !strings.Contains(card, "body") {
		t.Fatalf("card missing content: %q", card)
	}
	if got := lipgloss.Width(card); got != 30 {
		t.Fatalf("width = %d, want 30", got)
	}
}

func TestBadgeText(t *testing.T) {
	up := Badge(model.Recommendation{
		Basis:     model.BasisCurrentConfigured,
		Direction: model.DirectionIncrease,
		Magnitude: decimal.NewFromInt(25),
	})
	if !strings.Contains(up, "R$ 25,00") {
		t.Fatalf("badge = %q, want magnitude", up)
	}
	ok := Badge(model.Recommendation{Direction: model.DirectionNone})
	if !strings.Contains(ok, "ok") {
		t.Fatalf("badge = %q, want ok", ok)
	}
}

func TestProgressBarClamps(t *testing.T) {
	bar := ProgressBar(15, 10, 10)
	if !strings.Contains(bar, "15/10") {
		t.Fatalf("bar = %q, want count", bar)
	}
	if strings.Contains(bar, "░") {
		t.Fatalf("bar = %q, want fully filled", bar)
	}
}

func TestStatusBarWidth(t *testing.T) {
	bar := RenderStatusBar(50, "[q]uit", "atualizado 10s")
	if got := lipgloss.Width(bar); got != 50 {
		t.Fatalf("width = %d, want 50", got)
	}
}

func TestPaceOf(t *testing.T) {
	tests := []struct {
		spent, elapsed float64
		want           Pace
	}{
		{0.50, 0.50, PaceOnTrack},
		{0.58, 0.50, PaceOnTrack},
		{0.70, 0.50, PaceAhead},
		{0.20, 0.50, PaceBehind},
	}
	for _, tt := range tests {
		if got := PaceOf(tt.spent, tt.elapsed); got != tt.want {
			t.Fatalf("PaceOf(%v, %v) = %v, want %v", tt.spent, tt.elapsed, got, tt.want)
		}
	}
}

func TestPaceBarShowsShares(t *testing.T) {
	bar := PaceBar(1.4, 0.5, 12)
	if !strings.Contains(bar, "100%") || !strings.Contains(bar, "50% of period") {
		t.Fatalf("bar = %q, want clamped spent share and elapsed share", bar)
	}
}
