package parsing

import (
	"testing"

	"github.com/jonathan/company-registry/internal/types"
)

func TestExtractFlat_AliasResolution(t *testing.T) {
	e := NewExtractor(Options{})

	tests := []struct {
		name     string
		rec      map[string]any
		expected func(t *testing.T, c *companyFields)
	}{
		{
			name: "canonical keys",
			rec: map[string]any{
				"business_id": "FI123", "name": "Acme Oy", "industry": "Software",
				"city": "Helsinki", "company_type": "OY", "address": "Mannerheimintie 1",
				"postal_code": "00100", "phone": "+358401234567", "email": "info@acme.fi",
				"website": "https://acme.fi", "status": "ACTIVE", "description": "Makes things",
			},
			expected: func(t *testing.T, c *companyFields) {
				if c.businessID != "FI123" || c.name != "Acme Oy" {
					t.Errorf("identity fields wrong: %q %q", c.businessID, c.name)
				}
				if c.industry != "Software" || c.city != "Helsinki" || c.companyType != "OY" {
					t.Errorf("classification fields wrong: %q %q %q", c.industry, c.city, c.companyType)
				}
			},
		},
		{
			name: "fallback keys",
			rec: map[string]any{
				"company_id": "FI456", "company_name": "Beta Ab", "sector": "Retail",
				"location": "Espoo", "legal_form": "AB", "street_address": "Otakaari 5",
				"zip_code": "02150", "telephone": "09-1234", "email_address": "x@beta.fi",
				"homepage": "beta.fi", "company_status": "LIQUIDATION", "business_description": "Shops",
			},
			expected: func(t *testing.T, c *companyFields) {
				if c.businessID != "FI456" || c.name != "Beta Ab" {
					t.Errorf("identity fields wrong: %q %q", c.businessID, c.name)
				}
				if c.industry != "Retail" || c.city != "Espoo" || c.companyType != "AB" {
					t.Errorf("classification fields wrong: %q %q %q", c.industry, c.city, c.companyType)
				}
				if c.postalCode != "02150" || c.website != "beta.fi" {
					t.Errorf("contact fields wrong: %q %q", c.postalCode, c.website)
				}
			},
		},
		{
			name: "earlier alias wins over later",
			rec:  map[string]any{"name": "First", "title": "Second", "business_id": "X"},
			expected: func(t *testing.T, c *companyFields) {
				if c.name != "First" {
					t.Errorf("name = %q, expected %q", c.name, "First")
				}
			},
		},
		{
			name: "empty alias falls through",
			rec:  map[string]any{"name": "  ", "company_name": "Real Name", "business_id": "X"},
			expected: func(t *testing.T, c *companyFields) {
				if c.name != "Real Name" {
					t.Errorf("name = %q, expected %q", c.name, "Real Name")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.ExtractFlat(tt.rec, 1)
			if err != nil {
				t.Fatalf("ExtractFlat returned error: %v", err)
			}
			tt.expected(t, flatten(c))
		})
	}
}

func TestExtractFlat_RejectsWithoutName(t *testing.T) {
	e := NewExtractor(Options{})

	recs := []map[string]any{
		{"business_id": "FI123", "industry": "Software"},
		{"business_id": "FI123", "name": ""},
		{"business_id": "FI123", "name": "   "},
		{"business_id": "FI123", "name": "null"},
		{"business_id": "FI123", "name": nil},
	}

	for i, rec := range recs {
		_, err := e.ExtractFlat(rec, i+1)
		if err == nil {
			t.Errorf("record %d: expected rejection, got none", i)
			continue
		}
		if !IsReject(err) {
			t.Errorf("record %d: expected RejectError, got %T", i, err)
		}
	}
}

func TestExtractFlat_SynthesizesAutoID(t *testing.T) {
	e := NewExtractor(Options{})

	c, err := e.ExtractFlat(map[string]any{"name": "No ID Oy"}, 7)
	if err != nil {
		t.Fatalf("ExtractFlat returned error: %v", err)
	}
	if c.BusinessID != "AUTO_7" {
		t.Errorf("BusinessID = %q, expected AUTO_7", c.BusinessID)
	}
	if !c.HasAutoID() {
		t.Error("HasAutoID() = false for synthesized id")
	}
}

func TestExtractFlat_CleansNullTokens(t *testing.T) {
	e := NewExtractor(Options{})

	c, err := e.ExtractFlat(map[string]any{
		"name":        "Acme Oy",
		"business_id": "FI123",
		"industry":    "null",
		"city":        "  ",
		"status":      nil,
		"address":     " Mannerheimintie 1 ",
	}, 1)
	if err != nil {
		t.Fatalf("ExtractFlat returned error: %v", err)
	}
	if c.Industry != nil {
		t.Errorf("Industry = %q, expected absent", *c.Industry)
	}
	if c.City != nil {
		t.Errorf("City = %q, expected absent", *c.City)
	}
	if c.Status != nil {
		t.Errorf("Status = %q, expected absent", *c.Status)
	}
	if c.Address == nil || *c.Address != "Mannerheimintie 1" {
		t.Errorf("Address not trimmed: %v", c.Address)
	}
}

func TestExtractFlat_NumericCoercion(t *testing.T) {
	e := NewExtractor(Options{})

	tests := []struct {
		name          string
		rec           map[string]any
		wantEmployees *int64
		wantRevenue   *float64
	}{
		{
			name:          "json numbers",
			rec:           map[string]any{"name": "X", "employees": float64(120), "revenue": float64(4.5e6)},
			wantEmployees: int64Ptr(120),
			wantRevenue:   float64Ptr(4.5e6),
		},
		{
			name:          "string values",
			rec:           map[string]any{"name": "X", "employees": "85", "revenue": "1200.50"},
			wantEmployees: int64Ptr(85),
			wantRevenue:   float64Ptr(1200.50),
		},
		{
			name:          "garbage leaves fields absent",
			rec:           map[string]any{"name": "X", "employees": "many", "revenue": "a lot"},
			wantEmployees: nil,
			wantRevenue:   nil,
		},
		{
			name:          "negative employee count dropped",
			rec:           map[string]any{"name": "X", "employees": float64(-3)},
			wantEmployees: nil,
			wantRevenue:   nil,
		},
		{
			name:          "alias fallback",
			rec:           map[string]any{"name": "X", "employee_count": float64(12), "turnover": "99000"},
			wantEmployees: int64Ptr(12),
			wantRevenue:   float64Ptr(99000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.ExtractFlat(tt.rec, 1)
			if err != nil {
				t.Fatalf("ExtractFlat returned error: %v", err)
			}
			if !int64PtrEq(c.Employees, tt.wantEmployees) {
				t.Errorf("Employees = %v, expected %v", ptrVal(c.Employees), ptrVal(tt.wantEmployees))
			}
			if !float64PtrEq(c.Revenue, tt.wantRevenue) {
				t.Errorf("Revenue = %v, expected %v", ptrVal(c.Revenue), ptrVal(tt.wantRevenue))
			}
		})
	}
}

func TestExtractFlat_RegistrationDate(t *testing.T) {
	e := NewExtractor(Options{})

	c, err := e.ExtractFlat(map[string]any{"name": "X", "founded": "18.11.2020"}, 1)
	if err != nil {
		t.Fatalf("ExtractFlat returned error: %v", err)
	}
	if c.RegistrationDate == nil || *c.RegistrationDate != "2020-11-18" {
		t.Errorf("RegistrationDate = %v, expected 2020-11-18", ptrVal(c.RegistrationDate))
	}

	c, err = e.ExtractFlat(map[string]any{"name": "X", "founded": "not-a-date"}, 1)
	if err != nil {
		t.Fatalf("record with bad date rejected: %v", err)
	}
	if c.RegistrationDate != nil {
		t.Errorf("RegistrationDate = %q, expected absent", *c.RegistrationDate)
	}
}

func TestExtractFlat_MetadataCollection(t *testing.T) {
	e := NewExtractor(Options{CollectMetadata: true})

	c, err := e.ExtractFlat(map[string]any{
		"name":        "X",
		"business_id": "FI123",
		"industry":    "Software",
		"end_date":    nil,
		"name_type":   "1",
		"source":      float64(3),
		"metadata":    map[string]any{"tradeRegisterStatus": "REGISTERED"},
	}, 1)
	if err != nil {
		t.Fatalf("ExtractFlat returned error: %v", err)
	}

	if c.Metadata == nil {
		t.Fatal("Metadata = nil, expected collected fields")
	}
	if c.Metadata["tradeRegisterStatus"] != "REGISTERED" {
		t.Error("incoming metadata sub-object not merged")
	}
	if c.Metadata["name_type"] != "1" {
		t.Error("unmapped field name_type not collected")
	}
	if _, ok := c.Metadata["industry"]; ok {
		t.Error("mapped field industry leaked into metadata")
	}

	// collection off by default
	e = NewExtractor(Options{})
	c, err = e.ExtractFlat(map[string]any{"name": "X", "extra": "y"}, 1)
	if err != nil {
		t.Fatalf("ExtractFlat returned error: %v", err)
	}
	if c.Metadata != nil {
		t.Errorf("Metadata = %v, expected nil without CollectMetadata", c.Metadata)
	}
}

// companyFields flattens pointer fields for terse assertions.
type companyFields struct {
	businessID, name, industry, city, companyType string
	address, postalCode, website                  string
}

func flatten(c *types.Company) *companyFields {
	f := &companyFields{businessID: c.BusinessID, name: c.Name}
	if c.Industry != nil {
		f.industry = *c.Industry
	}
	if c.City != nil {
		f.city = *c.City
	}
	if c.CompanyType != nil {
		f.companyType = *c.CompanyType
	}
	if c.Address != nil {
		f.address = *c.Address
	}
	if c.PostalCode != nil {
		f.postalCode = *c.PostalCode
	}
	if c.Website != nil {
		f.website = *c.Website
	}
	return f
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func float64PtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptrVal[T any](p *T) any {
	if p == nil {
		return "<absent>"
	}
	return *p
}
