// Package types provides type definitions for structured data used throughout the company-registry system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Company is the canonical company record persisted to the sink.
// Optional fields are pointers: nil means the source had no usable value,
// which is distinct from an empty or zero value.
type Company struct {
	ID               int64          `json:"id,omitempty"`
	BusinessID       string         `json:"business_id"`
	Name             string         `json:"name"`
	Industry         *string        `json:"industry,omitempty"`
	City             *string        `json:"city,omitempty"`
	CompanyType      *string        `json:"company_type,omitempty"`
	Address          *string        `json:"address,omitempty"`
	RegistrationDate *string        `json:"registration_date,omitempty"`
	PostalCode       *string        `json:"postal_code,omitempty"`
	Phone            *string        `json:"phone,omitempty"`
	Email            *string        `json:"email,omitempty"`
	Website          *string        `json:"website,omitempty"`
	Employees        *int64         `json:"employees,omitempty"`
	Revenue          *float64       `json:"revenue,omitempty"`
	Status           *string        `json:"status,omitempty"`
	Description      *string        `json:"description,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// HasAutoID reports whether the business id was synthesized during import
// rather than resolved from the source record.
func (c *Company) HasAutoID() bool {
	return len(c.BusinessID) > 5 && c.BusinessID[:5] == "AUTO_"
}
