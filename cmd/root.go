package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/stashstat/internal/config"
	"github.com/theirongolddev/stashstat/internal/logger"
	"github.com/theirongolddev/stashstat/internal/pipeline"
	"github.com/theirongolddev/stashstat/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDB    string
	flagUser  string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:   "stashstat",
	Short: "Consumption statistics CLI",
	Long:  "Log consumption activity and view current, past, and projected statistics.",
	RunE:  runStats,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Activity database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Current user id (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	registerStatsFlags(rootCmd)
}

// loadConfig reads config and applies persistent flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}
	if flagUser != "" {
		cfg.General.UserID = flagUser
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", config.Path(), err)
	}

	level := cfg.Log.Level
	if flagQuiet {
		level = "error"
	}
	if err := logger.SetLevel(level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openStore is the shared store opening path used by all commands.
func openStore(cfg config.Config) (*store.ActivityLog, error) {
	path := cfg.DatabasePath()
	log, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening activity log %s: %w", path, err)
	}
	logger.Debug("opened activity log", "path", path)
	return log, nil
}

// openEngine loads config and returns an engine over the activity log. The
// caller closes the returned store.
func openEngine() (config.Config, *store.ActivityLog, *pipeline.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return cfg, nil, nil, err
	}
	log, err := openStore(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	engine := pipeline.NewEngine(log, pipeline.WithLocation(loc))
	return cfg, log, engine, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
