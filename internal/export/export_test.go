package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-registry/internal/types"
)

func strPtr(s string) *string { return &s }

// parseCSV strips the BOM and decodes the remaining output.
func parseCSV(t *testing.T, raw []byte) [][]string {
	t.Helper()
	trimmed := bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(trimmed)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_EmptyHasBOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "output should start with a UTF-8 BOM")

	rows := parseCSV(t, raw)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}

func TestWriteCSV_RendersRows(t *testing.T) {
	employees := int64(120)
	revenue := 1250000.5
	full := &types.Company{
		ID:               7,
		BusinessID:       "1234567-8",
		Name:             "Acme Software Oy",
		Industry:         strPtr("Software Development"),
		City:             strPtr("Helsinki"),
		CompanyType:      strPtr("OY"),
		Address:          strPtr("Mannerheimintie 12"),
		RegistrationDate: strPtr("2018-03-01"),
		PostalCode:       strPtr("00100"),
		Employees:        &employees,
		Revenue:          &revenue,
		Status:           strPtr("ACTIVE"),
	}
	minimal := &types.Company{ID: 8, BusinessID: "AUTO_3", Name: "Nameless Holdings"}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*types.Company{full, minimal}))

	rows := parseCSV(t, buf.Bytes())
	require.Len(t, rows, 3)

	first := rows[1]
	assert.Equal(t, "7", first[0])
	assert.Equal(t, "1234567-8", first[1])
	assert.Equal(t, "Acme Software Oy", first[2])
	assert.Equal(t, "Software Development", first[3])
	assert.Equal(t, "Helsinki", first[4])
	assert.Equal(t, "2018-03-01", first[7])
	assert.Equal(t, "120", first[12])
	assert.Equal(t, "1250000.5", first[13])
	assert.Equal(t, "ACTIVE", first[14])

	second := rows[2]
	assert.Equal(t, "AUTO_3", second[1])
	assert.Equal(t, "Nameless Holdings", second[2])
	for _, cell := range second[3:] {
		assert.Empty(t, cell, "absent fields should render as empty cells")
	}
}

func TestWriteCSV_EscapesSpecialCharacters(t *testing.T) {
	company := &types.Company{
		BusinessID: "9999999-9",
		Name:       `Quotes "and" Commas, Oy`,
		Address:    strPtr("Line one\nLine two"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*types.Company{company}))

	rows := parseCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, `Quotes "and" Commas, Oy`, rows[1][2])
	assert.Equal(t, "Line one\nLine two", rows[1][6])
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 11, 18, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "company_export_2025-11-18.csv", Filename(now))
}
