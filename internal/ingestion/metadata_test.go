package ingestion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.json")
	content := `[{"name": "Acme Oy"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	info, err := DescribeSource(path)
	require.NoError(t, err)

	assert.Equal(t, path, info.File)
	assert.Equal(t, int64(len(content)), info.SizeBytes)
	// Hash should be 64 hex characters (SHA256)
	assert.Len(t, info.Hash, 64)
	assert.NotEmpty(t, info.Timestamp)
	assert.False(t, info.Gzip)
}

func TestDescribeSource_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	c := filepath.Join(dir, "c.json")
	require.NoError(t, os.WriteFile(a, []byte(`{"name": "Acme"}`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`{"name": "Acme"}`), 0644))
	require.NoError(t, os.WriteFile(c, []byte(`{"name": "Beta"}`), 0644))

	infoA, err := DescribeSource(a)
	require.NoError(t, err)
	infoB, err := DescribeSource(b)
	require.NoError(t, err)
	infoC, err := DescribeSource(c)
	require.NoError(t, err)

	assert.Equal(t, infoA.Hash, infoB.Hash, "same bytes hash alike regardless of name")
	assert.NotEqual(t, infoA.Hash, infoC.Hash)
}

func TestDescribeSource_GzipFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("raw bytes, hash does not decompress"), 0644))

	info, err := DescribeSource(path)
	require.NoError(t, err)
	assert.True(t, info.Gzip)
}

func TestDescribeSource_MissingFile(t *testing.T) {
	_, err := DescribeSource(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestSourceInfo_ToJSON(t *testing.T) {
	info := &SourceInfo{
		File:      "companies.json",
		SizeBytes: 42,
		Hash:      "abcd1234",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	jsonBytes, err := info.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, jsonBytes)

	var unmarshaled SourceInfo
	err = json.Unmarshal(jsonBytes, &unmarshaled)
	require.NoError(t, err)
	assert.Equal(t, info.File, unmarshaled.File)
	assert.Equal(t, info.SizeBytes, unmarshaled.SizeBytes)
	assert.Equal(t, info.Hash, unmarshaled.Hash)
}
