package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashstat/internal/tui/theme"
)

// ShareBar renders a consumer's share of the total as a bar followed by its
// percentage. pct is in [0, 100].
func ShareBar(pct float64, width int) string {
	t := theme.Active

	frac := pct / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if width < 4 {
		width = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(ColorForShare(frac))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(ColorForShare(frac)).Bold(true)
	return bar.ViewAs(frac) + " " + pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

// ColorForShare returns a brighter accent for larger shares.
func ColorForShare(frac float64) lipgloss.Color {
	t := theme.Active
	switch {
	case frac >= 0.75:
		return t.Orange
	case frac >= 0.5:
		return t.Yellow
	case frac >= 0.25:
		return t.AccentBright
	default:
		return t.Accent
	}
}
