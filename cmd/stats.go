package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/stashstat/internal/cli"
	"github.com/theirongolddev/stashstat/internal/config"
	"github.com/theirongolddev/stashstat/internal/model"
	"github.com/theirongolddev/stashstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagMode         string
	flagPeriod       string
	flagScope        string
	flagSessionStart string
	flagLastSession  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for one mode, period, and scope",
	Long: "Show statistics for one mode, period, and scope.\n\n" +
		"Modes:   current, past, projected\n" +
		"Periods: session, hour, twelve_hour, today, week, month, year\n" +
		"Scopes:  self_stash, counterparty_stash, self_as_consumer",
	RunE: runStats,
}

func init() {
	registerStatsFlags(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func registerStatsFlags(c *cobra.Command) {
	c.Flags().StringVarP(&flagMode, "mode", "m", "", "Statistics mode (default from config)")
	c.Flags().StringVarP(&flagPeriod, "period", "p", "", "Time period (default from config)")
	c.Flags().StringVarP(&flagScope, "scope", "s", "", "Ownership scope (default from config)")
	c.Flags().StringVar(&flagSessionStart, "session-start", "", "Current session start (RFC3339 or epoch ms; default latest session)")
	c.Flags().StringVar(&flagLastSession, "last-session", "", "Id of the last completed session")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, log, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer log.Close()

	ctx := commandContext(cmd)
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	if req.Period == model.PeriodSession && req.SessionStart.IsZero() && flagLastSession == "" {
		ids, err := log.DistinctSessionIDs(ctx, 2)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		req.SessionStart, req.LastCompletedSessionID = sessionContext(ids)
	}

	res := engine.Compute(ctx, req)

	fmt.Println()
	fmt.Print(cli.RenderResult(res, cfg.Appearance.Currency))
	return nil
}

// buildRequest merges command-line flags over the configured defaults.
func buildRequest(cfg config.Config) (model.StatsRequest, error) {
	req := cfg.DefaultRequest()

	if flagMode != "" {
		m, err := model.ParseMode(flagMode)
		if err != nil {
			return req, err
		}
		req.Mode = m
	}
	if flagPeriod != "" {
		p, err := model.ParsePeriod(flagPeriod)
		if err != nil {
			return req, err
		}
		req.Period = p
	}
	if flagScope != "" {
		s, err := model.ParseScope(flagScope)
		if err != nil {
			return req, err
		}
		req.Scope = s
	}
	if flagSessionStart != "" {
		t, err := parseSessionStart(flagSessionStart)
		if err != nil {
			return req, err
		}
		req.SessionStart = t
	}
	req.LastCompletedSessionID = flagLastSession
	return req, nil
}

// parseSessionStart accepts an RFC3339 timestamp or a session id (epoch ms).
func parseSessionStart(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session start %q: want RFC3339 or epoch milliseconds", s)
	}
	return t, nil
}

// sessionContext treats the most recent logged session as the live one and
// the one before it as the last completed session.
func sessionContext(ids []string) (time.Time, string) {
	var start time.Time
	var last string
	if len(ids) > 0 {
		if t, err := parseSessionStart(ids[0]); err == nil && pipeline.SessionIDFor(t) == ids[0] {
			start = t
		}
	}
	if len(ids) > 1 {
		last = ids[1]
	}
	return start, last
}
