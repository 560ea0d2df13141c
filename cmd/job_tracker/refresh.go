package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var refreshCompany string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch new postings from every active company",
	Long:  "Fetch postings from the job boards of all active companies, or one company with --company, and record an application for each new posting that matches the target role.",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshCompany, "company", "", "Only refresh the company with this ID")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	companyID, err := parseOptionalID(refreshCompany)
	if err != nil {
		return err
	}

	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.ingester().Run(cmd.Context(), companyID)
	if err != nil {
		return err
	}

	printNewRoles(cmd.OutOrStdout(), result.NewApplications)
	return nil
}

// parseOptionalID parses a company ID flag; empty means all companies.
func parseOptionalID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid company ID %q: %w", value, err)
	}
	return &id, nil
}

func printNewRoles(w io.Writer, n int) {
	fmt.Fprintf(w, "%d new roles found\n", n)
}
