package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashstat/internal/cli"
	"github.com/theirongolddev/stashstat/internal/model"
	"github.com/theirongolddev/stashstat/internal/tui/components"
	"github.com/theirongolddev/stashstat/internal/tui/theme"
)

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  stashstat needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	body := logoStyle.Render("◈ stashstat") + "\n\n" +
		a.spinner.View() + subtitleStyle.Render(" Computing statistics...")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body))
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	keys := []struct{ key, desc string }{
		{"m / M", "next / previous mode"},
		{"p / P", "next / previous period (also right / left)"},
		{"s / S", "next / previous scope"},
		{"r", "refresh now"},
		{"q", "quit"},
	}

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-8s", k.key)))
		b.WriteString(descStyle.Render(k.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(descStyle.Render(fmt.Sprintf("Refreshes every %s. Press any key to close.", a.refreshInterval)))

	card := components.ContentCard("Keys", b.String(), 60)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.contentWidth()
	res := a.result

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Bold(true)

	var b strings.Builder

	header := titleStyle.Render(fmt.Sprintf(" %s  %s  %s",
		strings.ToUpper(string(a.req.Mode)),
		cli.FormatLabel(string(a.req.Period)),
		cli.FormatLabel(string(a.req.Scope))))
	if res.ProjectionScale != nil {
		header += "  " + warnStyle.Render("projected "+cli.FormatScale(res.Scale()))
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(" " + cli.FormatWindow(res.WindowStart, res.WindowEnd)))
	b.WriteString("\n\n")

	b.WriteString(components.MetricCardRow(a.categoryMetrics(t), w))
	b.WriteString("\n")
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total count", Value: cli.FormatNumber(int64(res.TotalCount()))},
		{Label: "Total quantity", Value: cli.FormatGrams(res.TotalQuantity)},
		{Label: "Total cost", Value: cli.FormatCost(res.TotalCost, a.currency)},
	}, w))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Consumers", a.consumerBody(components.CardInnerWidth(w)), w))
	b.WriteString("\n")

	age := ""
	if !a.lastRefresh.IsZero() {
		age = cli.FormatDuration(a.now().Sub(a.lastRefresh).Truncate(time.Second)) + " ago"
	}
	b.WriteString(components.RenderStatusBar(w, age))

	return b.String()
}

func (a App) categoryMetrics(t theme.Theme) []components.Metric {
	res := a.result
	metrics := make([]components.Metric, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		metrics = append(metrics, components.Metric{
			Label: cli.FormatLabel(string(c)),
			Value: cli.FormatNumber(int64(res.CountsByCategory[c])),
			Delta: cli.FormatGrams(res.QuantityByCategory[c]) + "  " + cli.FormatCost(res.CostByCategory[c], a.currency),
			Color: t.CategoryColor(c),
		})
	}
	return metrics
}

func (a App) consumerBody(inner int) string {
	if len(a.result.Consumers) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No activity in this window.")
	}

	const nameW, gramsW = 16, 10
	barW := inner - nameW - gramsW - 10
	if barW < 4 {
		barW = 4
	}

	lines := make([]string, 0, len(a.result.Consumers))
	for _, c := range a.result.Consumers {
		name := c.ConsumerID
		if r := []rune(name); len(r) > nameW {
			name = string(r[:nameW-1]) + "…"
		}
		lines = append(lines, fmt.Sprintf("%-*s %*s  %s",
			nameW, name,
			gramsW, cli.FormatGrams(c.Quantity),
			components.ShareBar(c.Percentage, barW)))
	}
	return strings.Join(lines, "\n")
}
