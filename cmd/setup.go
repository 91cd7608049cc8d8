package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/stashstat/internal/config"
	"github.com/theirongolddev/stashstat/internal/model"
	"github.com/theirongolddev/stashstat/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to stashstat!")
	fmt.Println()

	form := newSetupForm(&cfg)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	cfg.General.UserID = strings.TrimSpace(cfg.General.UserID)
	cfg.General.Timezone = strings.TrimSpace(cfg.General.Timezone)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `stashstat setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func newSetupForm(cfg *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your user id").
				Description("Used as the consumer for `add` and to match linked identities.").
				Value(&cfg.General.UserID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("user id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Time zone").
				Description("IANA name for calendar days, blank for local time.").
				Value(&cfg.General.Timezone).
				Validate(validateTimezone),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default mode").
				Options(enumOptions(model.Modes)...).
				Value(&cfg.Defaults.Mode),
			huh.NewSelect[string]().
				Title("Default period").
				Options(enumOptions(model.Periods)...).
				Value(&cfg.Defaults.Period),
			huh.NewSelect[string]().
				Title("Default scope").
				Options(enumOptions(model.Scopes)...).
				Value(&cfg.Defaults.Scope),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency symbol").
				Value(&cfg.Appearance.Currency),
			huh.NewSelect[string]().
				Title("Watch view theme").
				Options(themeOptions()...).
				Value(&cfg.Appearance.Theme),
		),
	)
}

func enumOptions[T ~string](values []T) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(values))
	for _, v := range values {
		opts = append(opts, huh.NewOption(formatOptionLabel(string(v)), string(v)))
	}
	return opts
}

func themeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		opts = append(opts, huh.NewOption(th.Name, th.Name))
	}
	return opts
}

func formatOptionLabel(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func validateTimezone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
}
