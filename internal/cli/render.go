package cli

import (
	"fmt"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Muran brand palette for plain CLI output.
var (
	ColorBorder    = lipgloss.Color("#2E2A3B")
	ColorTextDim   = lipgloss.Color("#5E5873")
	ColorTextMuted = lipgloss.Color("#8A84A0")
	ColorText      = lipgloss.Color("#F4F1FA")
	ColorAccent    = lipgloss.Color("#FF6E00")
	ColorGreen     = lipgloss.Color("#5DB075")
	ColorOrange    = lipgloss.Color("#F29E4C")
	ColorRed       = lipgloss.Color("#E05A5A")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorTextMuted)
	borderStyle   = lipgloss.NewStyle().Foreground(ColorTextDim)
	increaseStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	decreaseStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(ColorOrange)
)

// Table is a bordered CLI table. The first LabelCols columns are left
// aligned and the rest, which hold figures, are right aligned.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]string
	LabelCols int    // defaults to 1
	Footer    string // muted line printed under the table
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(60).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderMuted renders secondary text.
func RenderMuted(s string) string {
	return mutedStyle.Render(s)
}

// RenderWarning renders a warning line.
func RenderWarning(s string) string {
	return warnStyle.Render(s)
}

// RenderRecommendation colors a recommendation by direction.
func RenderRecommendation(r model.Recommendation) string {
	text := FormatRecommendation(r)
	switch r.Direction {
	case model.DirectionIncrease:
		return increaseStyle.Render(text)
	case model.DirectionDecrease:
		return decreaseStyle.Render(text)
	}
	return mutedStyle.Render(text)
}

// RenderTable renders t with rounded borders. Cells may carry their own
// styling; widths are measured on visible characters.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	labels := t.LabelCols
	if labels <= 0 {
		labels = 1
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col >= labels {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	if t.Footer != "" {
		b.WriteString("  " + mutedStyle.Render(t.Footer) + "\n")
	}
	return b.String()
}

// RenderProgressBar renders "[████░░░░] n/total".
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}
	filled := min(current*width/total, width)
	filled = max(filled, 0)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %d/%d", mutedStyle.Render(bar), current, total)
}

// RenderSparkline draws values as unicode blocks scaled to the largest one.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune("▁▂▃▄▅▆▇█")
	top := 0.0
	for _, v := range values {
		top = max(top, v)
	}
	if top == 0 {
		top = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / top * float64(len(blocks)-1))
		b.WriteRune(blocks[max(0, min(idx, len(blocks)-1))])
	}
	return b.String()
}
