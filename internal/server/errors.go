package server

import (
	"fmt"
	"net/http"
)

// ErrCompanyNotFound reports that no company row matched the lookup key.
type ErrCompanyNotFound struct {
	Key string
}

func (e *ErrCompanyNotFound) Error() string {
	return fmt.Sprintf("company not found: %s", e.Key)
}

// ErrEmptyExport reports that the export filters matched nothing.
type ErrEmptyExport struct{}

func (e *ErrEmptyExport) Error() string {
	return "no companies found matching the given criteria"
}

// ErrValidation reports a rejected request parameter.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message)
}

// HTTPStatus maps API errors onto status codes. Anything unrecognized is
// treated as an internal failure.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrCompanyNotFound, *ErrEmptyExport:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
