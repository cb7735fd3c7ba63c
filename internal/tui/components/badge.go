package components

import (
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Badge renders a recommendation as a colored pill.
func Badge(r model.Recommendation) string {
	t := theme.Active

	style := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch {
	case r.Direction == model.DirectionIncrease:
		style = style.Foreground(t.Background).Background(t.Increase)
	case r.Direction == model.DirectionDecrease:
		style = style.Foreground(t.Background).Background(t.Decrease)
	default:
		style = style.Foreground(t.OK)
	}
	return style.Render(cli.FormatRecommendation(r))
}
