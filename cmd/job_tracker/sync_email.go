package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncEmailCmd = &cobra.Command{
	Use:   "sync-email",
	Short: "Update application statuses from recent email",
	Long:  "Search the inbox for each active company's latest correspondence and advance applications that are still new or applied.",
	Args:  cobra.NoArgs,
	RunE:  runSyncEmail,
}

func init() {
	rootCmd.AddCommand(syncEmailCmd)
}

func runSyncEmail(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	updated, err := a.syncer().Sync(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d applications updated\n", updated)
	return nil
}
