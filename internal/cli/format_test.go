package cli

import (
	"testing"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"5", "R$ 5,00"},
		{"136.3636", "R$ 136,36"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-25", "-R$ 25,00"},
	}
	for _, tt := range tests {
		if got := FormatBRL(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Fatalf("FormatBRL(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1.234.567" {
		t.Fatalf("FormatNumber = %q, want 1.234.567", got)
	}
	if got := FormatNumber(-999); got != "-999" {
		t.Fatalf("FormatNumber = %q, want -999", got)
	}
}

func TestFormatRecommendation(t *testing.T) {
	inc := model.Recommendation{Direction: model.DirectionIncrease, Magnitude: decimal.NewFromInt(25)}
	if got := FormatRecommendation(inc); got != "▲ R$ 25,00" {
		t.Fatalf("FormatRecommendation = %q, want ▲ R$ 25,00", got)
	}
	if got := FormatRecommendation(model.Recommendation{Direction: model.DirectionNone}); got != "ok" {
		t.Fatalf("FormatRecommendation(none) = %q, want ok", got)
	}
}

func TestFormatDateAndDuration(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "05/03/2024" {
		t.Fatalf("FormatDate = %q, want 05/03/2024", got)
	}
	if got := FormatDuration(65 * time.Second); got != "1m 5s" {
		t.Fatalf("FormatDuration = %q, want 1m 5s", got)
	}
	if got := FormatDays(1); got != "1 day" {
		t.Fatalf("FormatDays(1) = %q, want 1 day", got)
	}
}

func TestFormatDirection(t *testing.T) {
	if got := FormatDirection(model.DirectionDecrease); got != "▼ decrease" {
		t.Fatalf("FormatDirection = %q, want ▼ decrease", got)
	}
	if got := FormatDirection(""); got != "ok" {
		t.Fatalf("FormatDirection(empty) = %q, want ok", got)
	}
}
