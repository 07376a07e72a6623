package parsing

import (
	"github.com/jonathan/company-registry/internal/types"
)

// Language codes used by the Finnish business registry for localized
// description entries.
const (
	langEnglish = "3"
	langFinnish = "1"
)

// registryConsumedKeys mirrors flatConsumedKeys for the nested source shape.
var registryConsumedKeys = buildConsumedSet(
	[]string{"businessId", "business_id", "names", "addresses", "mainBusinessLine",
		"companyForms", "website", "status", "registrationDate", "metadata"},
)

// IsRegistryRecord sniffs whether a raw record uses the nested
// business-registry shape: a structured businessId sub-object or a names
// sub-list instead of a plain name field.
func IsRegistryRecord(rec map[string]any) bool {
	if _, ok := asMap(rec["businessId"]); ok {
		return true
	}
	if _, ok := asSlice(rec["names"]); ok {
		return true
	}
	return false
}

// ExtractRegistry resolves a nested business-registry record. seq seeds the
// AUTO_<n> placeholder exactly as in ExtractFlat.
func (e *Extractor) ExtractRegistry(rec map[string]any, seq int) (*types.Company, error) {
	names, _ := asSlice(rec["names"])
	name := pickRegistryName(names)
	if name == nil {
		return nil, &RejectError{Reason: "no name found"}
	}

	c := &types.Company{
		Name:        *name,
		BusinessID:  autoID(registryBusinessID(rec), seq),
		Industry:    pickBusinessLine(rec["mainBusinessLine"]),
		CompanyType: pickCompanyForm(rec["companyForms"]),
		Status:      cleanText(rec["status"]),
	}

	address, city, postalCode := pickAddress(rec["addresses"])
	c.Address = address
	c.City = city
	c.PostalCode = postalCode

	if site, ok := asMap(rec["website"]); ok {
		c.Website = cleanText(site["url"])
	}
	if date, ok := NormalizeDate(rec["registrationDate"]); ok {
		c.RegistrationDate = &date
	}

	if e.opts.CollectMetadata {
		c.Metadata = collectMetadata(rec, registryConsumedKeys)
	}
	return c, nil
}

// registryBusinessID unwraps a structured businessId sub-object, falling back
// to the scalar form some dumps use.
func registryBusinessID(rec map[string]any) *string {
	v, ok := rec["businessId"]
	if !ok {
		return nil
	}
	if sub, ok := asMap(v); ok {
		return cleanText(sub["value"])
	}
	return cleanText(v)
}

// pickRegistryName chooses the company name from a names sub-list: prefer an
// active entry (no endDate) marked as the primary name (type "1"), then the
// first active entry, then the first entry of any kind.
func pickRegistryName(names []any) *string {
	var firstActive, firstAny *string
	for _, v := range names {
		entry, ok := asMap(v)
		if !ok {
			continue
		}
		name := cleanText(entry["name"])
		if name == nil {
			continue
		}
		if firstAny == nil {
			firstAny = name
		}
		if entry["endDate"] != nil {
			continue
		}
		if t, _ := textValue(entry["type"]); t == "1" {
			return name
		}
		if firstActive == nil {
			firstActive = name
		}
	}
	if firstActive != nil {
		return firstActive
	}
	return firstAny
}

// pickAddress assembles street + building number from the first address entry
// and derives the city from its post-office list.
func pickAddress(v any) (address, city, postalCode *string) {
	addresses, ok := asSlice(v)
	if !ok || len(addresses) == 0 {
		return nil, nil, nil
	}
	entry, ok := asMap(addresses[0])
	if !ok {
		return nil, nil, nil
	}

	street, _ := textValue(entry["street"])
	if street != "" {
		full := street
		if building, ok := textValue(entry["buildingNumber"]); ok {
			full = street + " " + building
		}
		address = &full
	}
	postalCode = cleanText(entry["postCode"])

	if offices, ok := asSlice(entry["postOffices"]); ok && len(offices) > 0 {
		if office, ok := asMap(offices[0]); ok {
			city = cleanText(office["city"])
		}
	}
	return address, city, postalCode
}

// pickBusinessLine extracts the industry text from mainBusinessLine,
// preferring English descriptions, then Finnish, then whatever comes first.
func pickBusinessLine(v any) *string {
	line, ok := asMap(v)
	if !ok {
		return nil
	}
	descriptions, ok := asSlice(line["descriptions"])
	if !ok {
		return nil
	}
	return pickLocalized(descriptions, langEnglish, langFinnish)
}

// pickCompanyForm extracts the legal form from the first active companyForms
// entry, preferring English descriptions.
func pickCompanyForm(v any) *string {
	forms, ok := asSlice(v)
	if !ok {
		return nil
	}
	for _, fv := range forms {
		form, ok := asMap(fv)
		if !ok || form["endDate"] != nil {
			continue
		}
		descriptions, ok := asSlice(form["descriptions"])
		if !ok {
			return nil
		}
		return pickLocalized(descriptions, langEnglish)
	}
	return nil
}

// pickLocalized returns the description text for the first matching language
// code, falling back to the first description present.
func pickLocalized(descriptions []any, preferred ...string) *string {
	for _, lang := range preferred {
		for _, dv := range descriptions {
			desc, ok := asMap(dv)
			if !ok {
				continue
			}
			if code, _ := textValue(desc["languageCode"]); code == lang {
				if text := cleanText(desc["description"]); text != nil {
					return text
				}
			}
		}
	}
	for _, dv := range descriptions {
		if desc, ok := asMap(dv); ok {
			if text := cleanText(desc["description"]); text != nil {
				return text
			}
		}
	}
	return nil
}
