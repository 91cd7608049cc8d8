package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashstat/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, dataAge string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [m]ode  [p]eriod  [s]cope  [r]efresh  [?]help  [q]uit"
	right := ""
	if dataAge != "" {
		right = fmt.Sprintf("Updated: %s ", dataAge)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
