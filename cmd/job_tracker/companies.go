package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
)

// companyStore is the subset of the database the companies commands use.
type companyStore interface {
	ListCompanies(ctx context.Context) ([]db.Company, error)
	CreateCompany(ctx context.Context, input db.CompanyInput) (*db.Company, error)
	SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Manage tracked companies",
}

var companiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked companies",
	Args:  cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, store companyStore, w io.Writer, _ []string) error {
		return listCompanies(ctx, store, w)
	}),
}

var addReq types.CreateCompanyRequest

var companiesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Start tracking a company",
	Long: "Start tracking a company's job board. --slug accepts a board slug or a careers page URL " +
		"(boards.greenhouse.io, jobs.lever.co, jobs.ashbyhq.com), from which the source is detected.",
	Args: cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, store companyStore, w io.Writer, _ []string) error {
		return addCompany(ctx, store, w, addReq)
	}),
}

var companiesActivateCmd = &cobra.Command{
	Use:   "activate ID",
	Short: "Resume fetching a company's postings",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, store companyStore, w io.Writer, args []string) error {
		return setCompanyActive(ctx, store, w, args[0], true)
	}),
}

var companiesDeactivateCmd = &cobra.Command{
	Use:   "deactivate ID",
	Short: "Stop fetching a company's postings and hide its jobs",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, store companyStore, w io.Writer, args []string) error {
		return setCompanyActive(ctx, store, w, args[0], false)
	}),
}

var companiesRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a company with its jobs and applications",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, store companyStore, w io.Writer, args []string) error {
		return removeCompany(ctx, store, w, args[0])
	}),
}

func init() {
	companiesAddCmd.Flags().StringVar(&addReq.Name, "name", "", "Company name (required)")
	companiesAddCmd.Flags().StringVar(&addReq.Slug, "slug", "", "Board slug or careers page URL (required)")
	companiesAddCmd.Flags().StringVar(&addReq.Source, "source", "greenhouse", "Job board: greenhouse, lever or ashby")
	companiesAddCmd.Flags().StringVar(&addReq.Website, "website", "", "Company website")
	_ = companiesAddCmd.MarkFlagRequired("name")
	_ = companiesAddCmd.MarkFlagRequired("slug")

	companiesCmd.AddCommand(companiesListCmd, companiesAddCmd, companiesActivateCmd, companiesDeactivateCmd, companiesRemoveCmd)
	rootCmd.AddCommand(companiesCmd)
}

// withStore adapts a store-backed action into a cobra RunE that bootstraps the app.
func withStore(fn func(ctx context.Context, store companyStore, w io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a.db, cmd.OutOrStdout(), args)
	}
}

func listCompanies(ctx context.Context, store companyStore, w io.Writer) error {
	companies, err := store.ListCompanies(ctx)
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		fmt.Fprintln(w, "No companies tracked yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tSLUG\tACTIVE")
	for _, c := range companies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", c.ID, c.Name, c.Source, c.Slug, c.IsActive)
	}
	return tw.Flush()
}

func addCompany(ctx context.Context, store companyStore, w io.Writer, req types.CreateCompanyRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Slug) == "" {
		return fmt.Errorf("name and slug are required")
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid company: %w", err)
	}

	source, slug, err := req.Board()
	if err != nil {
		return fmt.Errorf("invalid company: %w", err)
	}
	company, err := store.CreateCompany(ctx, db.CompanyInput{
		Name:       strings.TrimSpace(req.Name),
		Slug:       slug,
		WebsiteURL: strings.TrimSpace(req.Website),
		Source:     source,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Added %s (%s/%s) with ID %s\n", company.Name, company.Source, company.Slug, company.ID)
	return nil
}

func setCompanyActive(ctx context.Context, store companyStore, w io.Writer, rawID string, active bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid company ID %q: %w", rawID, err)
	}
	if err := store.SetCompanyActive(ctx, id, active); err != nil {
		return fmt.Errorf("failed to update company %s: %w", id, err)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(w, "Company %s %s\n", id, state)
	return nil
}

func removeCompany(ctx context.Context, store companyStore, w io.Writer, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid company ID %q: %w", rawID, err)
	}
	if err := store.DeleteCompany(ctx, id); err != nil {
		return fmt.Errorf("failed to remove company %s: %w", id, err)
	}

	fmt.Fprintf(w, "Company %s removed\n", id)
	return nil
}
