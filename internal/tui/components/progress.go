package components

import (
	"fmt"

	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a refresh bar followed by "n/total".
func ProgressBar(current, total, width int) string {
	t := theme.Active

	pct := 0.0
	if total > 0 {
		pct = clamp01(float64(current) / float64(total))
	}
	count := lipgloss.NewStyle().Foreground(t.TextMuted).Render(fmt.Sprintf(" %d/%d", current, total))
	return solidBar(string(t.Accent), max(width, 1)).ViewAs(pct) + count
}

// Pace compares the share of a budget already spent with the share of its
// period already elapsed.
type Pace int

const (
	PaceOnTrack Pace = iota
	PaceAhead        // spending faster than the calendar
	PaceBehind       // spending slower than the calendar
)

// paceTolerance is how far, in share points, spend may drift from the
// calendar before it is flagged.
const paceTolerance = 0.10

// PaceOf classifies spentShare against elapsedShare, both in [0, 1].
func PaceOf(spentShare, elapsedShare float64) Pace {
	switch diff := spentShare - elapsedShare; {
	case diff > paceTolerance:
		return PaceAhead
	case diff < -paceTolerance:
		return PaceBehind
	}
	return PaceOnTrack
}

// PaceBar renders the spent share of a budget colored by its pace, then the
// spent and elapsed percentages.
func PaceBar(spentShare, elapsedShare float64, width int) string {
	t := theme.Active
	spentShare, elapsedShare = clamp01(spentShare), clamp01(elapsedShare)

	color := t.OK
	switch PaceOf(spentShare, elapsedShare) {
	case PaceAhead:
		color = t.Warning
	case PaceBehind:
		color = t.Increase
	}

	label := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf(" %3.0f%%", spentShare*100))
	elapsed := lipgloss.NewStyle().Foreground(t.TextDim).Render(fmt.Sprintf(" of budget, %3.0f%% of period", elapsedShare*100))
	return solidBar(string(color), max(width, 1)).ViewAs(spentShare) + label + elapsed
}

func solidBar(color string, width int) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(color),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(theme.Active.TextDim)
	return bar
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
