package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-registry/internal/types"
)

// TestHandleListCompanies tests the list endpoint envelope
func TestHandleListCompanies(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Companies []types.Company `json:"companies"`
		Total     int64           `json:"total"`
		Skip      int             `json:"skip"`
		Limit     int             `json:"limit"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Len(t, resp.Companies, 3)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 0, resp.Skip)
	assert.Equal(t, defaultPageSize, resp.Limit)
	assert.Equal(t, "1234567-8", resp.Companies[0].BusinessID)
}

// TestHandleListCompanies_Pagination tests that skip and limit are applied and echoed
func TestHandleListCompanies_Pagination(t *testing.T) {
	s, mock := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies?skip=1&limit=1", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.lastLimit)
	assert.Equal(t, 1, mock.lastOffset)

	var resp struct {
		Companies []types.Company `json:"companies"`
		Total     int64           `json:"total"`
		Skip      int             `json:"skip"`
		Limit     int             `json:"limit"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Len(t, resp.Companies, 1)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 1, resp.Skip)
	assert.Equal(t, 1, resp.Limit)
	assert.Equal(t, "2345678-9", resp.Companies[0].BusinessID)
}

// TestHandleListCompanies_LimitCapped tests that oversized limits are clamped
func TestHandleListCompanies_LimitCapped(t *testing.T) {
	s, mock := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies?limit=99999", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxPageSize, mock.lastLimit)
}

// TestHandleListCompanies_EmptyStore tests that an empty result is [], not null
func TestHandleListCompanies_EmptyStore(t *testing.T) {
	s := &Server{store: &mockStore{}}

	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"companies":[]`)
}

// TestHandleListCompanies_InvalidDate tests date filter validation
func TestHandleListCompanies_InvalidDate(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies?min_date=15.01.2020", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "min_date")
	assert.Contains(t, resp["error"], "YYYY-MM-DD")
}

// TestHandleListCompanies_StoreError tests DB failure surfaces as 500
func TestHandleListCompanies_StoreError(t *testing.T) {
	s, mock := newTestServer()
	mock.fail = true

	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	w := httptest.NewRecorder()

	s.handleListCompanies(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestHandleGetCompany tests fetching one company by row id
func TestHandleGetCompany(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/2", nil)
	req.SetPathValue("id", "2")
	w := httptest.NewRecorder()

	s.handleGetCompany(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var company types.Company
	err := json.Unmarshal(w.Body.Bytes(), &company)
	require.NoError(t, err)
	assert.Equal(t, "2345678-9", company.BusinessID)
	assert.Equal(t, "Aurora Analytics Ab", company.Name)
}

// TestHandleGetCompany_InvalidID tests get company with a non-numeric id
func TestHandleGetCompany_InvalidID(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/not-a-number", nil)
	req.SetPathValue("id", "not-a-number")
	w := httptest.NewRecorder()

	s.handleGetCompany(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "Invalid company ID")
}

// TestHandleGetCompany_NotFound tests get company for an absent row
func TestHandleGetCompany_NotFound(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/999", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()

	s.handleGetCompany(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "company not found: 999")
}

// TestHandleGetCompanyByBusinessID tests the business id lookup
func TestHandleGetCompanyByBusinessID(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/by-business-id?business_id=3456789-0", nil)
	w := httptest.NewRecorder()

	s.handleGetCompanyByBusinessID(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var company types.Company
	err := json.Unmarshal(w.Body.Bytes(), &company)
	require.NoError(t, err)
	assert.Equal(t, "Baltic Freight Ltd", company.Name)
}

// TestHandleGetCompanyByBusinessID_Missing tests the lookup without the parameter
func TestHandleGetCompanyByBusinessID_Missing(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/by-business-id", nil)
	w := httptest.NewRecorder()

	s.handleGetCompanyByBusinessID(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "Business ID is required")
}

// TestHandleGetCompanyByBusinessID_NotFound tests the lookup for an absent id
func TestHandleGetCompanyByBusinessID_NotFound(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/companies/by-business-id?business_id=0000000-0", nil)
	w := httptest.NewRecorder()

	s.handleGetCompanyByBusinessID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestParseQueryInt tests the parseQueryInt helper function
func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		key          string
		defaultValue int
		maxValue     int
		want         int
	}{
		{
			name:         "valid value",
			query:        "?limit=25",
			key:          "limit",
			defaultValue: 50,
			maxValue:     100,
			want:         25,
		},
		{
			name:         "missing value uses default",
			query:        "?offset=10",
			key:          "limit",
			defaultValue: 50,
			maxValue:     100,
			want:         50,
		},
		{
			name:         "value exceeds max",
			query:        "?limit=200",
			key:          "limit",
			defaultValue: 50,
			maxValue:     100,
			want:         100,
		},
		{
			name:         "zero max means uncapped",
			query:        "?skip=5000",
			key:          "skip",
			defaultValue: 0,
			maxValue:     0,
			want:         5000,
		},
		{
			name:         "negative value uses default",
			query:        "?limit=-5",
			key:          "limit",
			defaultValue: 50,
			maxValue:     100,
			want:         50,
		},
		{
			name:         "non-numeric value uses default",
			query:        "?limit=abc",
			key:          "limit",
			defaultValue: 50,
			maxValue:     100,
			want:         50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/companies"+tt.query, nil)
			got := parseQueryInt(req, tt.key, tt.defaultValue, tt.maxValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseFilters tests filter extraction from query parameters
func TestParseFilters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/companies?industry=Tech&city=Helsinki&company_type=Osakeyhti%C3%B6&min_date=2020-01-01&max_date=2021-12-31&search=oy", nil)

	filters, err := parseFilters(req)
	require.NoError(t, err)

	assert.Equal(t, "Tech", filters.Industry)
	assert.Equal(t, "Helsinki", filters.City)
	assert.Equal(t, "Osakeyhtiö", filters.CompanyType)
	assert.Equal(t, "2020-01-01", filters.MinDate)
	assert.Equal(t, "2021-12-31", filters.MaxDate)
	assert.Equal(t, "oy", filters.Search)
}

// TestParseFilters_BadMaxDate tests rejection of non-canonical date bounds
func TestParseFilters_BadMaxDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/companies?max_date=2021-13-45", nil)

	_, err := parseFilters(req)
	require.Error(t, err)

	var verr *ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "max_date", verr.Field)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}
