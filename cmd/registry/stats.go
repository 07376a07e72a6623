package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the companies table",
	Long:  `Print the row count, the top industries and cities, and a few sample rows. Handy for verifying an import.`,
	RunE:  runStats,
}

var (
	statsConfigPath string
	statsDBURL      string
)

func init() {
	statsCmd.Flags().StringVar(&statsConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	statsCmd.Flags().StringVar(&statsDBURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFile(statsConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = statsDBURL
	}
	cfg, err = finalizeConfig(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRegistryStats(stats)
	printer.PrintSampleCompanies(stats.Sample)

	return nil
}
