package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashstat/internal/model"

	"github.com/spf13/cobra"
)

var flagLinkName string

var linkCmd = &cobra.Command{
	Use:   "link <consumer-id> <user-id>",
	Short: "Map a local consumer id to an external user identity",
	Args:  cobra.ExactArgs(2),
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVar(&flagLinkName, "name", "", "Display name for the identity")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ident := model.ExternalIdentity{UserID: args[1], DisplayName: flagLinkName}
	if err := log.LinkIdentity(commandContext(cmd), args[0], ident); err != nil {
		return err
	}
	fmt.Printf("  Linked consumer %s to user %s\n", args[0], args[1])
	return nil
}
