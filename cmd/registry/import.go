package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/config"
	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/importer"
	"github.com/jonathan/company-registry/internal/ingestion"
	"github.com/jonathan/company-registry/internal/observability"
	"github.com/jonathan/company-registry/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import company records from a JSON registry dump",
	Long: `Import company records from a JSON source file into the database.

The source may be a JSON array, newline-delimited JSON, or a wrapped document
(a "companies"/"results"/"items"/"data" key), plain or gzip-compressed. Rows
are upserted by business id in batches; existing rows are kept (--mode ignore)
or overwritten (--mode replace). The table is created if missing and existing
rows are never dropped; use the load command for a full reload.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importConfigPath      string
	importDBURL           string
	importBatchSize       int
	importMode            string
	importProfile         string
	importStrict          bool
	importCollectMetadata bool
	importManifest        string
	importVerbose         bool
)

func init() {
	importCmd.Flags().StringVar(&importConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	importCmd.Flags().StringVar(&importDBURL, "db-url", "", "postgres:// URL or SQLite file path (defaults to DATABASE_URL env var)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", config.DefaultBatchSize, "Rows per committed batch")
	importCmd.Flags().StringVar(&importMode, "mode", config.DefaultMode, "Duplicate handling: ignore keeps existing rows, replace overwrites them")
	importCmd.Flags().StringVar(&importProfile, "profile", config.DefaultProfile, "Record interpretation: auto, flat or registry")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "Validate extracted rows against the record schema; failures count as errored")
	importCmd.Flags().BoolVar(&importCollectMetadata, "collect-metadata", false, "Keep unmapped source fields in the metadata column")
	importCmd.Flags().StringVar(&importManifest, "manifest", "", "Write a run manifest JSON (counters + source fingerprint) to this path")
	importCmd.Flags().BoolVarP(&importVerbose, "verbose", "v", false, "Print per-batch progress")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfigFile(importConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = importDBURL
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = importBatchSize
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = importMode
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = importProfile
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = importVerbose
	}
	cfg, err = finalizeConfig(cfg)
	if err != nil {
		return err
	}

	mode, err := types.ParseConflictMode(cfg.Mode)
	if err != nil {
		return err
	}
	profile, err := importer.ParseProfile(cfg.Profile)
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM aborts between batches; committed batches stay.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	imp := importer.New(store, importer.Options{
		BatchSize:       cfg.BatchSize,
		Mode:            mode,
		Profile:         profile,
		CollectMetadata: importCollectMetadata,
		Strict:          importStrict,
		Verbose:         cfg.Verbose,
	})

	stats, runErr := imp.Run(ctx, file)
	if stats != nil {
		observability.NewPrinter(os.Stdout).PrintImportSummary(stats)
		if importManifest != "" {
			if err := writeManifest(importManifest, file, stats); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Manifest: %s\n", importManifest)
		}
	}
	if runErr != nil {
		return fmt.Errorf("import failed: %w", runErr)
	}

	fmt.Fprintf(os.Stdout, "Successfully imported %d companies from %s\n", stats.Imported, file)
	return nil
}

// writeManifest records the run counters next to a fingerprint of the source
// file, so a reimport of the same dump is recognizable later.
func writeManifest(path, sourceFile string, stats *types.ImportStats) error {
	source, err := ingestion.DescribeSource(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to describe source: %w", err)
	}

	manifest := struct {
		Import *types.ImportStats    `json:"import"`
		Source *ingestion.SourceInfo `json:"source"`
	}{stats, source}

	jsonBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
