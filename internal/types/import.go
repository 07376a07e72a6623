// Package types provides type definitions for structured data used throughout the company-registry system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"
)

// ConflictMode selects what an upsert does when a row with the same
// business_id already exists. A single import run uses exactly one mode.
type ConflictMode string

const (
	// ConflictIgnore keeps the existing row untouched (incremental imports).
	ConflictIgnore ConflictMode = "ignore"
	// ConflictReplace overwrites all mapped columns (full reimports).
	ConflictReplace ConflictMode = "replace"
)

// ParseConflictMode converts a user-supplied mode string into a ConflictMode.
func ParseConflictMode(s string) (ConflictMode, error) {
	switch ConflictMode(s) {
	case ConflictIgnore, ConflictReplace:
		return ConflictMode(s), nil
	default:
		return "", fmt.Errorf("invalid conflict mode %q (want %q or %q)", s, ConflictIgnore, ConflictReplace)
	}
}

// BatchResult reports the outcome of one committed batch upsert. Applied
// counts rows the sink actually wrote; Ignored counts rows left untouched
// because a row with the same business_id already existed and the run uses
// ConflictIgnore.
type BatchResult struct {
	Applied int
	Ignored int
}

// ImportStats is the run-end summary of one import run.
type ImportStats struct {
	RunID      string       `json:"run_id"`
	File       string       `json:"file"`
	Mode       ConflictMode `json:"mode"`
	Imported   int          `json:"imported"`
	Skipped    int          `json:"skipped"`
	Errored    int          `json:"errored"`
	Malformed  int          `json:"malformed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (s *ImportStats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Total returns the number of records the run saw, in any outcome.
func (s *ImportStats) Total() int {
	return s.Imported + s.Skipped + s.Errored + s.Malformed
}
