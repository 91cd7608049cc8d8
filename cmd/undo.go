package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/stashstat/internal/cli"
	"github.com/theirongolddev/stashstat/internal/store"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Remove the most recently logged activity",
	RunE:  runUndo,
}

func init() {
	rootCmd.AddCommand(undoCmd)
}

func runUndo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	rec, err := log.Undo(commandContext(cmd))
	if errors.Is(err, store.ErrNoRecords) {
		fmt.Println("  Nothing to undo.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("  Removed %s #%d: %s by %s (%s)\n",
		rec.Category, rec.ID,
		cli.FormatGrams(rec.Quantity),
		rec.ConsumerID,
		rec.Timestamp.Local().Format("Jan 02 15:04"),
	)
	return nil
}
