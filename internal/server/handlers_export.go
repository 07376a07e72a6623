package server

import (
	"log"
	"net/http"
	"time"

	"github.com/jonathan/company-registry/internal/export"
)

// handleExport streams the filtered table as a CSV attachment. Pagination
// does not apply here; the filters select the whole result set.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	companies, err := s.store.ExportCompanies(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if len(companies) == 0 {
		empty := &ErrEmptyExport{}
		s.errorResponse(w, HTTPStatus(empty), empty.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	if err := export.WriteCSV(w, companies); err != nil {
		// Headers are out; the truncated download is all we can report.
		log.Printf("[HTTP] streaming CSV export: %v", err)
	}
}

// handleStats summarizes the registry contents
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}
