// Package parsing maps raw registry dump records onto canonical company rows.
// Sources disagree on key names and value shapes, so every canonical field is
// resolved through an ordered alias list and coerced to its canonical type.
package parsing

import (
	"fmt"

	"github.com/jonathan/company-registry/internal/types"
)

// Ordered alias lists per canonical field; the first present-and-non-empty
// source key wins.
var (
	businessIDAliases  = []string{"business_id", "id", "company_id"}
	nameAliases        = []string{"name", "company_name", "business_name", "title"}
	industryAliases    = []string{"industry", "sector", "business_type"}
	cityAliases        = []string{"city", "location", "municipality"}
	companyTypeAliases = []string{"company_type", "type", "legal_form"}
	addressAliases     = []string{"address", "street_address", "full_address"}
	postalCodeAliases  = []string{"postal_code", "zip_code", "postcode"}
	phoneAliases       = []string{"phone", "telephone", "phone_number"}
	emailAliases       = []string{"email", "email_address"}
	websiteAliases     = []string{"website", "url", "homepage"}
	statusAliases      = []string{"status", "company_status"}
	descriptionAliases = []string{"description", "business_description"}
	employeesAliases   = []string{"employees", "employee_count"}
	revenueAliases     = []string{"revenue", "turnover"}
	regDateAliases     = []string{"registration_date", "registrationDate", "founded", "established", "incorporation_date"}
)

// flatConsumedKeys is the union of all alias keys; anything outside it is an
// unmapped source field and eligible for metadata collection.
var flatConsumedKeys = buildConsumedSet(
	businessIDAliases, nameAliases, industryAliases, cityAliases,
	companyTypeAliases, addressAliases, postalCodeAliases, phoneAliases,
	emailAliases, websiteAliases, statusAliases, descriptionAliases,
	employeesAliases, revenueAliases, regDateAliases,
	[]string{"metadata", "businessId"},
)

func buildConsumedSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, key := range list {
			set[key] = struct{}{}
		}
	}
	return set
}

// Options configures field extraction.
type Options struct {
	// CollectMetadata copies unmapped source fields into Company.Metadata;
	// used by the streaming importer, off for full reloads.
	CollectMetadata bool
}

// Extractor turns raw records into canonical company rows.
type Extractor struct {
	opts Options
}

// NewExtractor returns an Extractor with the given options.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// ExtractFlat resolves a flat-schema record. seq is the 1-based position of
// the record within the run and seeds the AUTO_<n> placeholder when no
// business id alias resolves. The only rejection is a missing name.
func (e *Extractor) ExtractFlat(rec map[string]any, seq int) (*types.Company, error) {
	name := cleanFirst(rec, nameAliases)
	if name == nil {
		return nil, &RejectError{Reason: "no name found"}
	}

	businessID := cleanFirst(rec, businessIDAliases)
	c := &types.Company{
		Name:        *name,
		BusinessID:  autoID(businessID, seq),
		Industry:    cleanFirst(rec, industryAliases),
		City:        cleanFirst(rec, cityAliases),
		CompanyType: cleanFirst(rec, companyTypeAliases),
		Address:     cleanFirst(rec, addressAliases),
		PostalCode:  cleanFirst(rec, postalCodeAliases),
		Phone:       cleanFirst(rec, phoneAliases),
		Email:       cleanFirst(rec, emailAliases),
		Website:     cleanFirst(rec, websiteAliases),
		Status:      cleanFirst(rec, statusAliases),
		Description: cleanFirst(rec, descriptionAliases),
	}

	// Bad numerics leave the field absent; the record is still imported.
	if v, ok := firstAlias(rec, employeesAliases); ok {
		if n, ok := toInt64(v); ok && n >= 0 {
			c.Employees = &n
		}
	}
	if v, ok := firstAlias(rec, revenueAliases); ok {
		if f, ok := toFloat64(v); ok {
			c.Revenue = &f
		}
	}
	if v, ok := firstAlias(rec, regDateAliases); ok {
		if date, ok := NormalizeDate(v); ok {
			c.RegistrationDate = &date
		}
	}

	if e.opts.CollectMetadata {
		c.Metadata = collectMetadata(rec, flatConsumedKeys)
	}
	return c, nil
}

// autoID returns the resolved business id or a run-scoped placeholder.
func autoID(businessID *string, seq int) string {
	if businessID != nil {
		return *businessID
	}
	return fmt.Sprintf("AUTO_%d", seq)
}

// collectMetadata merges an incoming metadata sub-object with every source
// field that no canonical column consumed. Returns nil when nothing remains.
func collectMetadata(rec map[string]any, consumed map[string]struct{}) map[string]any {
	meta := make(map[string]any)
	if incoming, ok := asMap(rec["metadata"]); ok {
		for k, v := range incoming {
			meta[k] = v
		}
	}
	for k, v := range rec {
		if _, taken := consumed[k]; taken {
			continue
		}
		meta[k] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
