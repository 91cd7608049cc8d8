package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashstat/internal/logger"
	"github.com/theirongolddev/stashstat/internal/tui"
	"github.com/theirongolddev/stashstat/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live statistics view that refreshes on an interval",
	RunE:  runWatch,
}

func init() {
	registerStatsFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, log, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer log.Close()

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	if req.SessionStart.IsZero() && flagLastSession == "" {
		ids, err := log.DistinctSessionIDs(commandContext(cmd), 2)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		req.SessionStart, req.LastCompletedSessionID = sessionContext(ids)
	}

	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alt screen.
	if err := logger.SetLevel("error"); err != nil {
		return err
	}

	app := tui.NewApp(engine, req, cfg.RefreshInterval(), cfg.Appearance.Currency)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
