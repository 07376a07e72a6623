package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/types"
)

// setupIntegrationTestServer builds a server over a real SQLite store seeded
// with a few rows, so requests exercise routing, middleware and SQL together.
func setupIntegrationTestServer(t *testing.T) (*Server, db.Store) {
	t.Helper()

	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureSchema(ctx))

	rows := []*types.Company{
		{BusinessID: "1111111-1", Name: "Helsinki Harbour Oy", Industry: strPtr("Logistics"), City: strPtr("Helsinki"), CompanyType: strPtr("Osakeyhtiö"), RegistrationDate: strPtr("2018-05-02")},
		{BusinessID: "2222222-2", Name: "Lakeside Software Oy", Industry: strPtr("Technology"), City: strPtr("Tampere"), CompanyType: strPtr("Osakeyhtiö"), RegistrationDate: strPtr("2021-09-14")},
		{BusinessID: "3333333-3", Name: "Polar Catering Ky", Industry: strPtr("Food"), City: strPtr("Rovaniemi"), CompanyType: strPtr("Kommandiittiyhtiö"), RegistrationDate: strPtr("2015-01-30")},
	}
	_, err = store.UpsertBatch(ctx, rows, types.ConflictReplace)
	require.NoError(t, err)

	s := New(store, Config{Port: 0})
	t.Cleanup(s.rateLimiter.Stop)
	return s, store
}

type listEnvelope struct {
	Companies []types.Company `json:"companies"`
	Total     int64           `json:"total"`
	Skip      int             `json:"skip"`
	Limit     int             `json:"limit"`
}

func TestCompaniesEndpoints_Integration(t *testing.T) {
	s, store := setupIntegrationTestServer(t)
	handler := s.Handler()

	get := func(t *testing.T, target string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("ListAll", func(t *testing.T) {
		w := get(t, "/companies")
		require.Equal(t, http.StatusOK, w.Code)

		var resp listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Total)
		require.Len(t, resp.Companies, 3)
		// Rows come back ordered by name
		assert.Equal(t, "Helsinki Harbour Oy", resp.Companies[0].Name)
		assert.Equal(t, "Polar Catering Ky", resp.Companies[2].Name)
	})

	t.Run("FilterByCity", func(t *testing.T) {
		w := get(t, "/companies?city=tampere")
		require.Equal(t, http.StatusOK, w.Code)

		var resp listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Companies, 1)
		assert.Equal(t, "Lakeside Software Oy", resp.Companies[0].Name)
	})

	t.Run("FilterByDateRange", func(t *testing.T) {
		w := get(t, "/companies?min_date=2017-01-01&max_date=2019-12-31")
		require.Equal(t, http.StatusOK, w.Code)

		var resp listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Companies, 1)
		assert.Equal(t, "1111111-1", resp.Companies[0].BusinessID)
	})

	t.Run("Search", func(t *testing.T) {
		w := get(t, "/companies?search=software")
		require.Equal(t, http.StatusOK, w.Code)

		var resp listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Companies, 1)
		assert.Equal(t, "2222222-2", resp.Companies[0].BusinessID)
	})

	t.Run("GetCompanyByID", func(t *testing.T) {
		seeded, err := store.GetCompanyByBusinessID(context.Background(), "1111111-1")
		require.NoError(t, err)
		require.NotNil(t, seeded)

		w := get(t, "/companies/"+strconv.FormatInt(seeded.ID, 10))
		require.Equal(t, http.StatusOK, w.Code)

		var company types.Company
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))
		assert.Equal(t, seeded.ID, company.ID)
		assert.Equal(t, "Helsinki Harbour Oy", company.Name)
	})

	t.Run("GetCompanyNotFound", func(t *testing.T) {
		w := get(t, "/companies/999999")
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp["error"], "not found")
	})

	t.Run("GetCompanyByBusinessID", func(t *testing.T) {
		w := get(t, "/companies/by-business-id?business_id=3333333-3")
		require.Equal(t, http.StatusOK, w.Code)

		var company types.Company
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))
		assert.Equal(t, "Polar Catering Ky", company.Name)
	})

	t.Run("ExportFiltered", func(t *testing.T) {
		w := get(t, "/export?industry=Technology")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))

		body := w.Body.String()
		assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
		assert.Contains(t, body, "Lakeside Software Oy")
		assert.NotContains(t, body, "Polar Catering Ky")
	})

	t.Run("Stats", func(t *testing.T) {
		w := get(t, "/stats")
		require.Equal(t, http.StatusOK, w.Code)

		var stats types.RegistryStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(3), stats.TotalCompanies)
		assert.Len(t, stats.TopIndustries, 3)
		assert.Len(t, stats.Sample, 3)
	})

	t.Run("Health", func(t *testing.T) {
		w := get(t, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})
}

func TestListCompanies_Pagination_Integration(t *testing.T) {
	s, _ := setupIntegrationTestServer(t)
	handler := s.Handler()

	seen := make(map[string]bool)
	for skip := 0; skip < 3; skip++ {
		req := httptest.NewRequest(http.MethodGet, "/companies?limit=1&skip="+strconv.Itoa(skip), nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Total)
		assert.Equal(t, 1, resp.Limit)
		assert.Equal(t, skip, resp.Skip)
		require.Len(t, resp.Companies, 1)
		seen[resp.Companies[0].BusinessID] = true
	}

	// Three pages of one row each cover the whole table exactly once.
	assert.Len(t, seen, 3)
}
