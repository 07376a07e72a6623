package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/observability"
	"github.com/jonathan/company-registry/internal/types"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the database with bundled sample companies",
	Long: `Drop and recreate the companies table and load the bundled sample data.
Useful for trying the API without a registry dump at hand.`,
	RunE: runSeed,
}

var (
	seedConfigPath string
	seedDBURL      string
)

func init() {
	seedCmd.Flags().StringVar(&seedConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	seedCmd.Flags().StringVar(&seedDBURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFile(seedConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = seedDBURL
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

	if err := store.RecreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to recreate schema: %w", err)
	}

	companies := db.SampleCompanies()
	result, err := store.UpsertBatch(ctx, companies, types.ConflictReplace)
	if err != nil {
		return fmt.Errorf("failed to insert sample companies: %w", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read back stats: %w", err)
	}
	observability.NewPrinter(os.Stdout).PrintSampleCompanies(stats.Sample)

	fmt.Fprintf(os.Stdout, "Database initialized successfully with %d sample companies\n", result.Applied)
	return nil
}
