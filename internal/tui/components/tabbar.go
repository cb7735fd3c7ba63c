package components

import (
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderPlatformTabs renders one tab per platform with the active one highlighted.
func RenderPlatformTabs(platforms []model.Platform, active model.Platform) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Padding(0, 1)

	sep := lipgloss.NewStyle().Foreground(t.TextDim).Render("│")

	parts := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if p == active {
			parts = append(parts, activeStyle.Render(p.Label()))
		} else {
			parts = append(parts, inactiveStyle.Render(p.Label()))
		}
	}
	return strings.Join(parts, sep)
}
