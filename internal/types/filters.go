// Package types provides type definitions for structured data used throughout the company-registry system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CompanyFilters narrows company queries. Zero values mean "no filter".
// Industry, City and Search match as case-insensitive substrings;
// CompanyType matches exactly; MinDate/MaxDate bound registration_date
// inclusively and must be canonical YYYY-MM-DD strings.
type CompanyFilters struct {
	Industry    string
	City        string
	CompanyType string
	MinDate     string
	MaxDate     string
	Search      string
}

// IsZero reports whether no filter is set.
func (f CompanyFilters) IsZero() bool {
	return f == CompanyFilters{}
}

// ValueCount is one row of a grouped count (industry distribution etc).
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// RegistryStats summarizes the companies table for verification output.
type RegistryStats struct {
	TotalCompanies int64        `json:"total_companies"`
	TopIndustries  []ValueCount `json:"top_industries"`
	TopCities      []ValueCount `json:"top_cities"`
	Sample         []Company    `json:"sample,omitempty"`
}
