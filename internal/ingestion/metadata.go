package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// SourceInfo fingerprints an import source file for the run manifest: two
// manifests with the same hash imported the same bytes, whatever the file
// was called at the time.
type SourceInfo struct {
	File      string `json:"file"`
	SizeBytes int64  `json:"size_bytes"`
	Hash      string `json:"hash"`      // SHA256 hex digest of the raw (still compressed) bytes
	Timestamp string `json:"timestamp"` // RFC3339 format
	Gzip      bool   `json:"gzip,omitempty"`
}

// DescribeSource hashes the file at path and returns its fingerprint.
func DescribeSource(path string) (*SourceInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash source file: %w", err)
	}

	return &SourceInfo{
		File:      path,
		SizeBytes: stat.Size(),
		Hash:      hex.EncodeToString(h.Sum(nil)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Gzip:      isGzipPath(path),
	}, nil
}

// ToJSON marshals SourceInfo to pretty-printed JSON
func (s *SourceInfo) ToJSON() ([]byte, error) {
	// Use standard encoding/json but format nicely
	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source info to JSON: %w", err)
	}
	return jsonBytes, nil
}
