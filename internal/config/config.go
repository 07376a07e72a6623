// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Default values applied when neither flags, config file nor environment
// provide one.
const (
	DefaultPort      = 8080
	DefaultBatchSize = 1000
	DefaultMode      = "ignore"
	DefaultProfile   = "auto"
)

// Config represents the CLI configuration that can be loaded from a JSON file
// or the environment. All fields are optional; missing values use defaults or
// must be provided via CLI flags.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" validate:"required"`            // Destination: postgres:// URL or SQLite file path
	Port        int    `json:"port,omitempty" validate:"min=1,max=65535"`             // HTTP port for the serve command
	BatchSize   int    `json:"batch_size,omitempty" validate:"min=1"`                 // Rows per committed import batch
	Mode        string `json:"mode,omitempty" validate:"oneof=ignore replace"`        // Duplicate handling: ignore or replace
	Profile     string `json:"profile,omitempty" validate:"oneof=auto flat registry"` // Source record interpretation
	Verbose     bool   `json:"verbose,omitempty"`                                     // Print detailed progress information
}

// LoadConfig reads a JSON config file. Relative paths resolve against the
// working directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Callers load .env
// files first (godotenv in main), so the variables cover both sources.
func FromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        envInt("PORT"),
		BatchSize:   envInt("BATCH_SIZE"),
		Mode:        os.Getenv("CONFLICT_MODE"),
		Profile:     os.Getenv("IMPORT_PROFILE"),
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Validate checks that the fully merged configuration has valid values.
// Call it after flags, config file, environment and defaults are combined.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config error: %q fails %q validation", e.Field(), e.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. Precedence stacks by calling it repeatedly: flags merged with the
// config file, then with the environment, then with the built-in defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Mode == "" {
		result.Mode = defaults.Mode
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	// Verbose is deliberately not merged: false and unset are the same thing
	// for a bool, and the flag layer owns it anyway.

	return result
}

// Defaults returns the built-in fallback configuration. DatabaseURL has no
// default; commands require it from a flag, config file or environment.
func Defaults() Config {
	return Config{
		Port:      DefaultPort,
		BatchSize: DefaultBatchSize,
		Mode:      DefaultMode,
		Profile:   DefaultProfile,
	}
}
