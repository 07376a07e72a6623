package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/company-registry/internal/types"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// parseFilters reads the filter parameters shared by the list and export
// endpoints. Date bounds must be canonical YYYY-MM-DD values.
func parseFilters(r *http.Request) (types.CompanyFilters, error) {
	q := r.URL.Query()
	f := types.CompanyFilters{
		Industry:    q.Get("industry"),
		City:        q.Get("city"),
		CompanyType: q.Get("company_type"),
		MinDate:     q.Get("min_date"),
		MaxDate:     q.Get("max_date"),
		Search:      q.Get("search"),
	}

	for _, bound := range []struct {
		field string
		value string
	}{{"min_date", f.MinDate}, {"max_date", f.MaxDate}} {
		if bound.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound.value); err != nil {
			return types.CompanyFilters{}, &ErrValidation{
				Field:   bound.field,
				Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", bound.value),
			}
		}
	}
	return f, nil
}

// handleListCompanies lists companies with optional filters and pagination
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", defaultPageSize, maxPageSize)
	skip := parseQueryInt(r, "skip", 0, 0)

	filters, err := parseFilters(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	companies, total, err := s.store.ListCompanies(r.Context(), filters, limit, skip)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if companies == nil {
		companies = []*types.Company{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"companies": companies,
		"total":     total,
		"skip":      skip,
		"limit":     limit,
	})
}

// handleGetCompany retrieves a company by row ID
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	company, err := s.store.GetCompanyByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if company == nil {
		notFound := &ErrCompanyNotFound{Key: r.PathValue("id")}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, company)
}

// handleGetCompanyByBusinessID retrieves a company by its registry business id
func (s *Server) handleGetCompanyByBusinessID(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("business_id")
	if businessID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Business ID is required")
		return
	}

	company, err := s.store.GetCompanyByBusinessID(r.Context(), businessID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if company == nil {
		notFound := &ErrCompanyNotFound{Key: businessID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, company)
}
