// Package theme defines color themes for the muran dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color
	Surface      lipgloss.Color // card and panel backgrounds
	SurfaceHover lipgloss.Color // selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused card
	TextDim      lipgloss.Color // hints, disabled
	TextMuted    lipgloss.Color // labels, metadata
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Increase     lipgloss.Color // budget should go up
	Decrease     lipgloss.Color // budget should go down
	OK           lipgloss.Color
	Warning      lipgloss.Color
	Error        lipgloss.Color
}

// Active is the currently selected theme.
var Active = Muran

// Muran is the default theme, built around the agency's orange.
var Muran = Theme{
	Name:         "muran",
	Background:   lipgloss.Color("#141414"),
	Surface:      lipgloss.Color("#1E1D1C"),
	SurfaceHover: lipgloss.Color("#2E2B29"),
	Border:       lipgloss.Color("#3F3B38"),
	BorderAccent: lipgloss.Color("#FF6E00"),
	TextDim:      lipgloss.Color("#5C5753"),
	TextMuted:    lipgloss.Color("#9A938D"),
	TextPrimary:  lipgloss.Color("#F5F0EB"),
	Accent:       lipgloss.Color("#FF6E00"),
	AccentBright: lipgloss.Color("#FF9240"),
	Increase:     lipgloss.Color("#5BBF6A"),
	Decrease:     lipgloss.Color("#E5534B"),
	OK:           lipgloss.Color("#7D8B99"),
	Warning:      lipgloss.Color("#E0AF3E"),
	Error:        lipgloss.Color("#E5534B"),
}

// Light suits terminals with a light background.
var Light = Theme{
	Name:         "light",
	Background:   lipgloss.Color("#FAF8F5"),
	Surface:      lipgloss.Color("#F0ECE7"),
	SurfaceHover: lipgloss.Color("#E3DDD6"),
	Border:       lipgloss.Color("#C9C1B8"),
	BorderAccent: lipgloss.Color("#D35A00"),
	TextDim:      lipgloss.Color("#A39A90"),
	TextMuted:    lipgloss.Color("#6E665E"),
	TextPrimary:  lipgloss.Color("#1E1B18"),
	Accent:       lipgloss.Color("#D35A00"),
	AccentBright: lipgloss.Color("#B04A00"),
	Increase:     lipgloss.Color("#2E7D32"),
	Decrease:     lipgloss.Color("#C62828"),
	OK:           lipgloss.Color("#607080"),
	Warning:      lipgloss.Color("#A86F00"),
	Error:        lipgloss.Color("#C62828"),
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("3"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("3"),
	AccentBright: lipgloss.Color("11"),
	Increase:     lipgloss.Color("2"),
	Decrease:     lipgloss.Color("1"),
	OK:           lipgloss.Color("7"),
	Warning:      lipgloss.Color("3"),
	Error:        lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{Muran, Light, Terminal}

// ByName returns a theme by its name, defaulting to Muran.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return Muran
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
