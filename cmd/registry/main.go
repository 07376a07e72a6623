// Package main provides the entry point for the company registry CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/company-registry/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "registry",
	Short: "Company registry data service",
	Long:  "Company registry imports heterogeneous business-registry JSON dumps into a relational store and serves the rows over a filterable REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigFile returns the parsed config file, or a zero Config when no
// path was given.
func loadConfigFile(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return *cfg, nil
}

// finalizeConfig layers environment values and built-in defaults under cfg
// and validates the result. Callers apply flag overrides before this, so the
// precedence ends up flags > config file > environment > defaults.
func finalizeConfig(cfg config.Config) (config.Config, error) {
	cfg = cfg.MergeWithDefaults(config.FromEnv()).MergeWithDefaults(config.Defaults())
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("database URL is required: pass --db-url, set database_url in the config file, or set DATABASE_URL")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
