package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath locates the compiled registry binary that the CLI tests
// exec. Skips in -short mode and when the binary has not been built yet.
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping CLI tests in short mode")
	}

	path := filepath.Join("..", "..", "bin", "registry")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("binary missing at %s, run 'make build' first", path)
	}
	return path
}
