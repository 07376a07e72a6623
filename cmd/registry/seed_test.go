package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommand_MissingDatabaseURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := runCLI(t, binaryPath, "seed")

	assert.Error(t, err)
	assert.Contains(t, output, "database URL is required")
}

func TestSeedCommand_PopulatesSampleData(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "registry.db")

	output, err := runCLI(t, binaryPath, "seed", "--db-url", dbPath)

	require.NoError(t, err, "seed should succeed: %s", output)
	assert.Contains(t, output, "SAMPLE ROWS")
	assert.Contains(t, output, "Database initialized successfully with 10 sample companies")

	statsOut, err := runCLI(t, binaryPath, "stats", "--db-url", dbPath)
	require.NoError(t, err, "stats should succeed: %s", statsOut)
	assert.Contains(t, statsOut, "Total companies: 10")
}

func TestSeedCommand_IsRepeatable(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "registry.db")

	output, err := runCLI(t, binaryPath, "seed", "--db-url", dbPath)
	require.NoError(t, err, "first seed should succeed: %s", output)

	// Seeding again rebuilds the table instead of accumulating rows.
	output, err = runCLI(t, binaryPath, "seed", "--db-url", dbPath)
	require.NoError(t, err, "second seed should succeed: %s", output)

	statsOut, err := runCLI(t, binaryPath, "stats", "--db-url", dbPath)
	require.NoError(t, err)
	assert.Contains(t, statsOut, "Total companies: 10")
}
