// Package components provides reusable TUI widgets for the muran dashboard.
package components

import (
	"github.com/BrunoRangell/app-muran-sub008/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tone colors a metric value by what it means for the operator.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneGood
	ToneWarning
	ToneAlert
)

func (tn Tone) color(t theme.Theme) lipgloss.Color {
	switch tn {
	case ToneGood:
		return t.OK
	case ToneWarning:
		return t.Warning
	case ToneAlert:
		return t.Error
	}
	return t.TextPrimary
}

// Metric is one labelled value shown in a metric card.
type Metric struct {
	Label string
	Value string
	Delta string
	Tone  Tone
}

// minCardContent keeps cards legible on narrow terminals.
const minCardContent = 10

// frame is the rounded, padded box shared by every card. outerWidth
// includes the border.
func frame(outerWidth int, border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(outerWidth-2, minCardContent)).
		Padding(0, 1)
}

// LayoutRow splits totalWidth into n widths summing to totalWidth, with
// the leading items one cell wider when it does not divide evenly.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = totalWidth / n
		if i < totalWidth%n {
			widths[i]++
		}
	}
	return widths
}

// MetricCardRow renders metric cards side by side; their widths sum to
// totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted)
	delta := lipgloss.NewStyle().Foreground(t.TextDim)

	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		body := label.Render(m.Label) + "\n" +
			lipgloss.NewStyle().Foreground(m.Tone.color(t)).Bold(true).Render(m.Value)
		if m.Delta != "" {
			body += "\n" + delta.Render(m.Delta)
		}
		cards[i] = frame(widths[i], t.Border).Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// ContentCard renders body in a card with an optional title. The focused
// card gets the accent border.
func ContentCard(title, body string, outerWidth int, focused bool) string {
	t := theme.Active
	border := t.Border
	if focused {
		border = t.BorderAccent
	}
	if title != "" {
		body = lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true).Render(title) + "\n" + body
	}
	return frame(outerWidth, border).Render(body)
}

// CardInnerWidth is the text width inside a ContentCard of outerWidth.
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, minCardContent)
}
