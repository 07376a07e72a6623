package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/export"
	"github.com/jonathan/company-registry/internal/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export companies to a CSV file",
	Long: `Write the companies matching the given filters to a CSV file with a UTF-8
BOM, ordered by name. Filters mirror the REST API: industry, city and search
match substrings, company type matches exactly, and the date bounds are
inclusive YYYY-MM-DD values.`,
	RunE: runExport,
}

var (
	exportConfigPath  string
	exportDBURL       string
	exportOut         string
	exportIndustry    string
	exportCity        string
	exportCompanyType string
	exportMinDate     string
	exportMaxDate     string
	exportSearch      string
)

func init() {
	exportCmd.Flags().StringVar(&exportConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	exportCmd.Flags().StringVar(&exportDBURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Path of the CSV file to write (required)")
	exportCmd.Flags().StringVar(&exportIndustry, "industry", "", "Filter: industry substring")
	exportCmd.Flags().StringVar(&exportCity, "city", "", "Filter: city substring")
	exportCmd.Flags().StringVar(&exportCompanyType, "company-type", "", "Filter: exact company type")
	exportCmd.Flags().StringVar(&exportMinDate, "min-date", "", "Filter: earliest registration date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportMaxDate, "max-date", "", "Filter: latest registration date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "Filter: substring over name, business id and address")

	if err := exportCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFile(exportConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = exportDBURL
	}
	cfg, err = finalizeConfig(cfg)
	if err != nil {
		return err
	}

	for _, bound := range []string{exportMinDate, exportMaxDate} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", bound)
		}
	}
	filters := types.CompanyFilters{
		Industry:    exportIndustry,
		City:        exportCity,
		CompanyType: exportCompanyType,
		MinDate:     exportMinDate,
		MaxDate:     exportMaxDate,
		Search:      exportSearch,
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	companies, err := store.ExportCompanies(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to query companies: %w", err)
	}
	if len(companies) == 0 {
		return fmt.Errorf("no companies found matching the given criteria")
	}

	if dir := filepath.Dir(exportOut); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, companies); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Exported %d companies to %s\n", len(companies), exportOut)
	return nil
}
