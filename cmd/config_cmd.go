// Package cmd implements the stashstat CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashstat/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.UserID != "" {
		fmt.Printf("    User id:   %s\n", cfg.General.UserID)
	} else {
		fmt.Println("    User id:   not configured")
	}
	fmt.Printf("    Database:  %s\n", cfg.DatabasePath())
	tz := cfg.General.Timezone
	if tz == "" {
		tz = "Local"
	}
	fmt.Printf("    Timezone:  %s\n", tz)
	fmt.Println()

	fmt.Println("  [Defaults]")
	fmt.Printf("    Mode:   %s\n", cfg.Defaults.Mode)
	fmt.Printf("    Period: %s\n", cfg.Defaults.Period)
	fmt.Printf("    Scope:  %s\n", cfg.Defaults.Scope)
	fmt.Println()

	fmt.Println("  [Watch]")
	fmt.Printf("    Refresh: %s\n", cfg.RefreshInterval())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Currency: %s\n", cfg.Appearance.Currency)
	fmt.Printf("    Theme:    %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `stashstat setup` to reconfigure.")
	return nil
}
