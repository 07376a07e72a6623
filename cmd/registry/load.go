package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/config"
	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/importer"
	"github.com/jonathan/company-registry/internal/observability"
	"github.com/jonathan/company-registry/internal/types"
)

var loadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Replace the companies table with the contents of a JSON dump",
	Long: `Drop and recreate the companies table, then import every record from the
source file. This is the destructive counterpart of the import command, meant
for full reloads of a registry dump; duplicates within the file overwrite
earlier rows.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var (
	loadConfigPath string
	loadDBURL      string
	loadBatchSize  int
	loadProfile    string
	loadVerbose    bool
)

func init() {
	loadCmd.Flags().StringVar(&loadConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	loadCmd.Flags().StringVar(&loadDBURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var)")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", config.DefaultBatchSize, "Rows per committed batch")
	loadCmd.Flags().StringVar(&loadProfile, "profile", config.DefaultProfile, "Record interpretation: auto, flat or registry")
	loadCmd.Flags().BoolVarP(&loadVerbose, "verbose", "v", false, "Print per-batch progress")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfigFile(loadConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = loadDBURL
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = loadBatchSize
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = loadProfile
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = loadVerbose
	}
	// A full reload always overwrites; the table was just dropped.
	cfg.Mode = string(types.ConflictReplace)
	cfg, err = finalizeConfig(cfg)
	if err != nil {
		return err
	}

	profile, err := importer.ParseProfile(cfg.Profile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	imp := importer.New(store, importer.Options{
		BatchSize:   cfg.BatchSize,
		Mode:        types.ConflictReplace,
		Profile:     profile,
		Destructive: true,
		Verbose:     cfg.Verbose,
	})

	stats, runErr := imp.Run(ctx, file)
	if stats != nil {
		observability.NewPrinter(os.Stdout).PrintImportSummary(stats)
	}
	if runErr != nil {
		return fmt.Errorf("load failed: %w", runErr)
	}

	fmt.Fprintf(os.Stdout, "Successfully loaded %d companies from %s\n", stats.Imported, file)
	return nil
}
