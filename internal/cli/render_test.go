package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTableAlignsWideGlyphs(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Client", "Change"},
		Rows: [][]string{
			{"Padaria", "▲ R$ 25,00"},
			{"Oficina", "ok"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6", len(lines))
	}
	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != want {
			t.Fatalf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1}); got != "▁█" {
		t.Fatalf("RenderSparkline = %q, want ▁█", got)
	}
	if got := RenderSparkline(nil); got != "" {
		t.Fatalf("RenderSparkline(nil) = %q, want empty", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(1, 0, 10); got != "" {
		t.Fatalf("RenderProgressBar with zero total = %q, want empty", got)
	}
	got := RenderProgressBar(3, 4, 8)
	if !strings.HasSuffix(got, "] 3/4") {
		t.Fatalf("RenderProgressBar = %q, want suffix ] 3/4", got)
	}
	if n := strings.Count(got, "█"); n != 6 {
		t.Fatalf("filled cells = %d, want 6", n)
	}
}

func TestRenderTableFooterAndAlignment(t *testing.T) {
	out := RenderTable(Table{
		Headers:   []string{"Client", "Spent"},
		Rows:      [][]string{{"Padaria", "R$ 5,00"}, {"Oficina", "R$ 1.250,00"}},
		LabelCols: 1,
		Footer:    "2 accounts",
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if last := lines[len(lines)-1]; !strings.Contains(last, "2 accounts") {
		t.Fatalf("last line = %q, want footer", last)
	}
	// Figures are right aligned: the short amount is padded on the left.
	if !strings.Contains(out, "    R$ 5,00 ") {
		t.Fatalf("amount not right aligned:\n%s", out)
	}
}
