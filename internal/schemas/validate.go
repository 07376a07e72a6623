// Package schemas provides JSON Schema validation for canonical company
// records. The record schema is embedded at compile time so strict import
// runs do not depend on the working directory.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed company_record.schema.json
var companyRecordSchema string

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

// FieldError is one schema violation at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every violation found in one document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	parts := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SchemaLoadError reports that the schema itself, or the document under
// validation, could not be loaded.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	msg := fmt.Sprintf("schema %s: %s", e.Path, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// CompanyRecordSchema returns the embedded schema source.
func CompanyRecordSchema() string {
	return companyRecordSchema
}

// compiledSchema parses the embedded schema once and caches the result.
func compiledSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(companyRecordSchema))
		if compileErr != nil {
			compileErr = &SchemaLoadError{
				Path:    "company_record.schema.json",
				Message: "embedded schema does not compile",
				Cause:   compileErr,
			}
		}
	})
	return compiled, compileErr
}

// ValidateCompanyRecord checks a company record against the embedded schema.
// The document may be any JSON-marshalable value, typically a *types.Company
// or the raw map it was extracted from.
func ValidateCompanyRecord(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &SchemaLoadError{
			Path:    "company_record.schema.json",
			Message: "document not loadable",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
