package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/stashstat/internal/cli"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx := commandContext(cmd)
	ids, err := log.DistinctSessionIDs(ctx, sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  (showing %d)", len(ids))))
	fmt.Println()

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		records, err := log.FetchBySessionID(ctx, id)
		if err != nil {
			return fmt.Errorf("reading session %s: %w", id, err)
		}

		startStr := ""
		if start, err := parseSessionStart(id); err == nil {
			startStr = start.Local().Format("Jan 02 15:04")
		}

		var grams, cost float64
		var last time.Time
		for _, r := range records {
			grams += r.Quantity
			cost += r.Cost
			if r.Timestamp.After(last) {
				last = r.Timestamp
			}
		}
		var span time.Duration
		if len(records) > 0 {
			span = last.Sub(records[0].Timestamp)
		}

		rows = append(rows, []string{
			truncate(id, 14),
			startStr,
			cli.FormatDuration(span),
			cli.FormatNumber(int64(len(records))),
			cli.FormatGrams(grams),
			cli.FormatCost(cost, cfg.Appearance.Currency),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Session", "Start", "Span", "Count", "Grams", "Cost"},
		Rows:    rows,
	}))

	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
