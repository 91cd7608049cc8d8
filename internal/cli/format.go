// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatGrams formats a quantity in grams.
// e.g., 0.25 -> "0.25g", 12.5 -> "12.5g", 1234 -> "1.23kg"
func FormatGrams(g float64) string {
	abs := math.Abs(g)
	switch {
	case abs >= 1000:
		return fmt.Sprintf("%.2fkg", g/1000)
	case abs >= 10:
		return fmt.Sprintf("%.1fg", g)
	default:
		return fmt.Sprintf("%.2fg", g)
	}
}

// FormatCost formats a cost value with the given currency symbol.
func FormatCost(cost float64, currency string) string {
	if cost >= 1000 {
		return currency + FormatNumber(int64(math.Round(cost)))
	}
	if cost >= 100 {
		return fmt.Sprintf("%s%.0f", currency, cost)
	}
	return fmt.Sprintf("%s%.2f", currency, cost)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatScale formats a projection scale, e.g. 2.5 -> "x2.50".
func FormatScale(scale float64) string {
	return fmt.Sprintf("x%.2f", scale)
}

// FormatDuration formats a duration as hours and minutes.
// e.g., 3725s -> "1h 2m", 125s -> "2m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0s"
	}

	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatWindow formats a time window in local time.
func FormatWindow(start, end time.Time) string {
	if start.IsZero() && end.IsZero() {
		return "no window"
	}
	const layout = "Jan 2 15:04"
	return fmt.Sprintf("%s - %s (%s)",
		start.Local().Format(layout), end.Local().Format(layout), FormatDuration(end.Sub(start)))
}

// FormatLabel turns an identifier like "twelve_hour" into "Twelve Hour".
func FormatLabel(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
