package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/stashstat/internal/cli"
	"github.com/theirongolddev/stashstat/internal/model"
	"github.com/theirongolddev/stashstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagAddConsumer string
	flagAddGrams    float64
	flagAddCost     float64
	flagAddOwner    string
	flagAddSession  string
	flagAddAt       string
)

var addCmd = &cobra.Command{
	Use:   "add <category>",
	Short: "Log a consumption activity",
	Long: "Log a consumption activity.\n\n" +
		"Categories: cone, joint, bowl, edible\n" +
		"Owner: empty for your own stash, \"their_stash\", or a counterparty user id.",
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddConsumer, "consumer", "c", "", "Consumer id (default: current user)")
	addCmd.Flags().Float64VarP(&flagAddGrams, "grams", "g", 0, "Quantity in grams")
	addCmd.Flags().Float64Var(&flagAddCost, "cost", 0, "Cost of the quantity")
	addCmd.Flags().StringVarP(&flagAddOwner, "owner", "o", "", "Whose stash the quantity came from")
	addCmd.Flags().StringVar(&flagAddSession, "session", "", "Session start (RFC3339 or epoch ms)")
	addCmd.Flags().StringVar(&flagAddAt, "at", "", "Activity time (RFC3339, default now)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	category, err := model.ParseCategory(args[0])
	if err != nil {
		return err
	}

	consumer := flagAddConsumer
	if consumer == "" {
		consumer = cfg.General.UserID
	}
	if consumer == "" {
		return fmt.Errorf("no consumer: pass --consumer or set general.user_id")
	}

	rec := model.ActivityRecord{
		Category:   category,
		ConsumerID: consumer,
		Quantity:   flagAddGrams,
		Cost:       flagAddCost,
		Owner:      strings.TrimSpace(flagAddOwner),
	}
	if flagAddAt != "" {
		t, err := time.Parse(time.RFC3339, flagAddAt)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", flagAddAt, err)
		}
		rec.Timestamp = t
	}
	if flagAddSession != "" {
		start, err := parseSessionStart(flagAddSession)
		if err != nil {
			return err
		}
		rec.SessionID = pipeline.SessionIDFor(start)
	}

	saved, err := log.Insert(commandContext(cmd), rec)
	if err != nil {
		return err
	}
	fmt.Printf("  Logged %s #%d: %s, %s (%s)\n",
		saved.Category, saved.ID,
		cli.FormatGrams(saved.Quantity),
		cli.FormatCost(saved.Cost, cfg.Appearance.Currency),
		saved.Timestamp.Local().Format("Jan 02 15:04"),
	)
	return nil
}
