package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(82, 4)
	if len(widths) != 4 {
		t.Fatalf("len = %d, want 4", len(widths))
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 82 {
		t.Errorf("sum = %d, want 82", sum)
	}
	if widths[0] != 21 || widths[3] != 20 {
		t.Errorf("widths = %v, want remainder on the first items", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Cone", Value: "3"},
		{Label: "Joint", Value: "1", Delta: "0.50g"},
	}, 60)

	if got := lipgloss.Width(row); got != 60 {
		t.Errorf("row width = %d, want 60", got)
	}
	if !strings.Contains(row, "Cone") || !strings.Contains(row, "0.50g") {
		t.Errorf("row missing content:\n%s", row)
	}
}

func TestContentCardTallestWins(t *testing.T) {
	short := ContentCard("Short", "A", 22)
	tall := ContentCard("Tall", "A\nB\nC\nD", 22)

	joined := lipgloss.JoinHorizontal(lipgloss.Top, tall, short)
	if got, want := len(strings.Split(joined, "\n")), len(strings.Split(tall, "\n")); got != want {
		t.Errorf("joined lines = %d, want %d", got, want)
	}
}

func TestShareBarClamps(t *testing.T) {
	for _, pct := range []float64{-5, 0, 42, 100, 250} {
		bar := ShareBar(pct, 20)
		if !strings.Contains(bar, "%") {
			t.Errorf("ShareBar(%v) = %q, want a percentage", pct, bar)
		}
	}
}

func TestRenderStatusBar(t *testing.T) {
	bar := RenderStatusBar(100, "3s ago")
	if !strings.Contains(bar, "[q]uit") || !strings.Contains(bar, "Updated: 3s ago") {
		t.Errorf("status bar = %q", bar)
	}
}
