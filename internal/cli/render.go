package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashstat/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorOrange    = lipgloss.Color("#DA702C")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if len(h) > widths[i] {
				widths[i] = len(h)
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols && len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	totalWidth := 1 // left border
	for _, w := range widths {
		totalWidth += w + 3 // padding + separator
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			w := widths[i]
			padded := fmt.Sprintf(" %-*s ", w, h)
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			// Separator row
			b.WriteString(dimStyle.Render("├"))
			for i, w := range widths {
				b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
				if i < numCols-1 {
					b.WriteString(dimStyle.Render("┼"))
				}
			}
			b.WriteString(dimStyle.Render("┤"))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", w, cell)
			} else {
				padded = fmt.Sprintf(" %*s ", w, cell)
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

// RenderResult renders a statistics result as a category table followed by
// the consumer breakdown.
func RenderResult(res model.StatsResult, currency string) string {
	var b strings.Builder

	title := fmt.Sprintf("%s  %s  %s",
		strings.ToUpper(string(res.Mode)), FormatLabel(string(res.Period)), FormatLabel(string(res.Scope)))
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")
	b.WriteString("  " + mutedStyle.Render(FormatWindow(res.WindowStart, res.WindowEnd)))
	if res.ProjectionScale != nil {
		b.WriteString("  " + warnStyle.Render("projected "+FormatScale(*res.ProjectionScale)))
	}
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(model.AllCategories)+2)
	for _, c := range model.AllCategories {
		rows = append(rows, []string{
			FormatLabel(string(c)),
			FormatNumber(int64(res.CountsByCategory[c])),
			FormatGrams(res.QuantityByCategory[c]),
			FormatCost(res.CostByCategory[c], currency),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		"Total",
		FormatNumber(int64(res.TotalCount())),
		FormatGrams(res.TotalQuantity),
		FormatCost(res.TotalCost, currency),
	})

	b.WriteString(RenderTable(Table{
		Headers: []string{"Category", "Count", "Quantity", "Cost"},
		Rows:    rows,
	}))

	if len(res.Consumers) == 0 {
		if res.IsEmpty() {
			b.WriteString("\n  " + mutedStyle.Render("No activity in this window.") + "\n")
		}
		return b.String()
	}

	b.WriteString("\n")
	consumerRows := make([][]string, 0, len(res.Consumers))
	for _, cs := range res.Consumers {
		count := 0
		for _, n := range cs.Counts {
			count += n
		}
		consumerRows = append(consumerRows, []string{
			cs.ConsumerID,
			FormatNumber(int64(count)),
			FormatGrams(cs.Quantity),
			FormatCost(cs.Cost, currency),
			FormatPercent(cs.Percentage),
		})
	}
	b.WriteString(RenderTable(Table{
		Title:   "By consumer",
		Headers: []string{"Consumer", "Count", "Quantity", "Cost", "Share"},
		Rows:    consumerRows,
	}))

	return b.String()
}
