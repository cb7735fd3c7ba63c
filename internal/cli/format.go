// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// FormatBRL formats an amount in Brazilian reais.
// e.g., 1234.5 -> "R$ 1.234,50", -3 -> "-R$ 3,00"
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return sign + "R$ " + fixed
	}
	return sign + "R$ " + FormatNumber(n) + "," + frac
}

// FormatNumber adds dot thousands separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte('.')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDate renders a civil date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// FormatPeriod renders an inclusive date range.
func FormatPeriod(start, end time.Time) string {
	return FormatDate(start) + " - " + FormatDate(end)
}

// FormatDays renders a day count.
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatDuration formats a duration as "1m 5s" or "850ms".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	secs := int64(d.Seconds())
	mins := secs / 60
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatDirection returns a short arrow label for a direction.
func FormatDirection(d model.Direction) string {
	switch d {
	case model.DirectionIncrease:
		return "▲ increase"
	case model.DirectionDecrease:
		return "▼ decrease"
	}
	return "ok"
}

// FormatRecommendation renders a recommendation as "▲ R$ 25,00" or "ok".
func FormatRecommendation(r model.Recommendation) string {
	switch r.Direction {
	case model.DirectionIncrease:
		return "▲ " + FormatBRL(r.Magnitude)
	case model.DirectionDecrease:
		return "▼ " + FormatBRL(r.Magnitude)
	}
	return "ok"
}

// FormatCycle describes which budget drove a review.
func FormatCycle(r model.Review) string {
	if r.UsingCustomBudget() {
		return "custom"
	}
	return "monthly"
}
