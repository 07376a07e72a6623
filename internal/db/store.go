// Package db provides relational storage for canonical company rows, backed
// by PostgreSQL or an embedded SQLite file selected from the connection
// string.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/company-registry/internal/types"
)

// Store is the persistence contract shared by the importer and the HTTP
// server. Both backends implement the same idempotent upsert keyed by
// business_id, so callers never branch on the engine.
type Store interface {
	// EnsureSchema creates the companies table and its indexes if absent.
	EnsureSchema(ctx context.Context) error
	// RecreateSchema drops the companies table and builds it fresh.
	RecreateSchema(ctx context.Context) error
	// UpsertBatch writes one batch atomically. A failure rolls the whole
	// batch back and is returned to the caller.
	UpsertBatch(ctx context.Context, batch []*types.Company, mode types.ConflictMode) (types.BatchResult, error)
	// CountCompanies returns the number of rows in the companies table.
	CountCompanies(ctx context.Context) (int64, error)
	// ListCompanies returns one page of filtered rows ordered by name,
	// plus the total row count matching the filters.
	ListCompanies(ctx context.Context, f types.CompanyFilters, limit, offset int) ([]*types.Company, int64, error)
	// GetCompanyByID returns a row by primary key, or nil when absent.
	GetCompanyByID(ctx context.Context, id int64) (*types.Company, error)
	// GetCompanyByBusinessID returns a row by business id, or nil when absent.
	GetCompanyByBusinessID(ctx context.Context, businessID string) (*types.Company, error)
	// ExportCompanies returns every row matching the filters, ordered by name.
	ExportCompanies(ctx context.Context, f types.CompanyFilters) ([]*types.Company, error)
	// Stats summarizes the table: row count, top industries and cities,
	// and a small sample of rows.
	Stats(ctx context.Context) (*types.RegistryStats, error)
	// Close releases the underlying connections.
	Close() error
}

// Open selects the backend from the connection string: postgres:// and
// postgresql:// URLs get the PostgreSQL store, anything else is treated as
// a path to an SQLite database file.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}
	if isPostgresURL(databaseURL) {
		return OpenPostgres(ctx, databaseURL)
	}
	return OpenSQLite(ctx, databaseURL)
}

func isPostgresURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") ||
		strings.HasPrefix(databaseURL, "postgresql://")
}

// statsTopLimit and statsSampleLimit bound the Stats payload.
const (
	statsTopLimit    = 10
	statsSampleLimit = 5
)

// companyColumns is the canonical select list; scan helpers and both
// backends must stay in column order agreement with it.
const companyColumns = `id, business_id, name, industry, city, company_type, address,
	registration_date, postal_code, phone, email, website, employees, revenue,
	status, description, metadata, created_at, updated_at`

// upsertColumns are the insertable columns, in the order upsertArgs emits
// values for them.
var upsertColumns = []string{
	"business_id", "name", "industry", "city", "company_type", "address",
	"registration_date", "postal_code", "phone", "email", "website",
	"employees", "revenue", "status", "description", "metadata",
}

// companyIndexes cover the query filters; the statements are valid in both
// dialects.
var companyIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_companies_business_id ON companies(business_id)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_industry ON companies(industry)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_city ON companies(city)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_company_type ON companies(company_type)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_registration_date ON companies(registration_date)`,
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// placeholder renders the n-th bind parameter for the dialect.
func (d dialect) placeholder(n int) string {
	if d == dialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholderList renders "p, p, ..., p" for count parameters starting at
// startArg.
func (d dialect) placeholderList(startArg, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = d.placeholder(startArg + i)
	}
	return strings.Join(parts, ", ")
}

// buildFilters renders the WHERE clause for the shared company filters and
// returns the clause, its bind arguments, and the next free argument number.
// Industry, city and search match case-insensitive substrings, company_type
// matches exactly, and the date bounds are inclusive.
func buildFilters(f types.CompanyFilters, d dialect, startArg int) (string, []any, int) {
	var conds []string
	var args []any
	n := startArg
	next := func() string {
		ph := d.placeholder(n)
		n++
		return ph
	}

	if f.Industry != "" {
		conds = append(conds, "LOWER(industry) LIKE LOWER("+next()+")")
		args = append(args, "%"+f.Industry+"%")
	}
	if f.City != "" {
		conds = append(conds, "LOWER(city) LIKE LOWER("+next()+")")
		args = append(args, "%"+f.City+"%")
	}
	if f.CompanyType != "" {
		conds = append(conds, "company_type = "+next())
		args = append(args, f.CompanyType)
	}
	if f.MinDate != "" {
		conds = append(conds, "registration_date >= "+next())
		args = append(args, f.MinDate)
	}
	if f.MaxDate != "" {
		conds = append(conds, "registration_date <= "+next())
		args = append(args, f.MaxDate)
	}
	if f.Search != "" {
		cond := "(LOWER(name) LIKE LOWER(" + next() +
			") OR LOWER(business_id) LIKE LOWER(" + next() +
			") OR LOWER(address) LIKE LOWER(" + next() + "))"
		conds = append(conds, cond)
		term := "%" + f.Search + "%"
		args = append(args, term, term, term)
	}

	if len(conds) == 0 {
		return "", nil, n
	}
	return " WHERE " + strings.Join(conds, " AND "), args, n
}

// rowScanner is the scanning surface pgx rows and database/sql rows share.
type rowScanner interface {
	Scan(dest ...any) error
}

// upsertArgs flattens a company into bind arguments matching upsertColumns.
func upsertArgs(c *types.Company) ([]any, error) {
	meta, err := metadataJSON(c)
	if err != nil {
		return nil, err
	}
	return []any{
		c.BusinessID, c.Name, c.Industry, c.City, c.CompanyType, c.Address,
		c.RegistrationDate, c.PostalCode, c.Phone, c.Email, c.Website,
		c.Employees, c.Revenue, c.Status, c.Description, meta,
	}, nil
}

// metadataJSON serializes the free-form metadata mapping for the
// JSON-as-text column, or nil when there is nothing to store.
func metadataJSON(c *types.Company) (*string, error) {
	if len(c.Metadata) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata for %s: %w", c.BusinessID, err)
	}
	s := string(b)
	return &s, nil
}

// attachMetadata restores the metadata mapping from its stored JSON text.
// Unreadable stored metadata is dropped rather than failing the read.
func attachMetadata(c *types.Company, raw *string) {
	if raw == nil || *raw == "" {
		return
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(*raw), &meta); err == nil {
		c.Metadata = meta
	}
}

// scanCompany reads one row in companyColumns order.
func scanCompany(row rowScanner) (*types.Company, error) {
	var c types.Company
	var meta *string
	err := row.Scan(
		&c.ID, &c.BusinessID, &c.Name, &c.Industry, &c.City, &c.CompanyType,
		&c.Address, &c.RegistrationDate, &c.PostalCode, &c.Phone, &c.Email,
		&c.Website, &c.Employees, &c.Revenue, &c.Status, &c.Description,
		&meta, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	attachMetadata(&c, meta)
	return &c, nil
}
