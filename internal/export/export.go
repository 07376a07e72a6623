// Package export renders company rows as CSV for spreadsheet use. The HTTP
// export endpoint and the export command share the same writer.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jonathan/company-registry/internal/types"
)

// utf8BOM keeps Excel from misreading Finnish names as Latin-1.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the fixed column order of every CSV export.
var Header = []string{
	"id", "business_id", "name", "industry", "city", "company_type",
	"address", "registration_date", "postal_code", "phone", "email",
	"website", "employees", "revenue", "status", "description",
}

// WriteCSV renders rows to w with a UTF-8 BOM and the fixed header. Absent
// optional fields become empty cells.
func WriteCSV(w io.Writer, companies []*types.Company) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range companies {
		if err := cw.Write(record(c)); err != nil {
			return fmt.Errorf("failed to write row %s: %w", c.BusinessID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the dated name for a downloaded export.
func Filename(now time.Time) string {
	return "company_export_" + now.Format("2006-01-02") + ".csv"
}

// record renders one company in Header order.
func record(c *types.Company) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		c.BusinessID,
		c.Name,
		str(c.Industry),
		str(c.City),
		str(c.CompanyType),
		str(c.Address),
		str(c.RegistrationDate),
		str(c.PostalCode),
		str(c.Phone),
		str(c.Email),
		str(c.Website),
		formatInt(c.Employees),
		formatFloat(c.Revenue),
		str(c.Status),
		str(c.Description),
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
