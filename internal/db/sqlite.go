package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/company-registry/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	business_id TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	industry TEXT,
	city TEXT,
	company_type TEXT,
	address TEXT,
	registration_date TEXT,
	postal_code TEXT,
	phone TEXT,
	email TEXT,
	website TEXT,
	employees INTEGER,
	revenue REAL,
	status TEXT,
	description TEXT,
	metadata TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore implements Store on an embedded SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -10000",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: sqlDB, path: path}, nil
}

// EnsureSchema creates the companies table and its indexes if absent.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	for _, idx := range companyIndexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// RecreateSchema drops the companies table and builds it fresh.
func (s *SQLiteStore) RecreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS companies`); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return s.EnsureSchema(ctx)
}

// UpsertBatch writes one batch inside a transaction. Rows count as applied
// when SQLite reports them written; under ConflictIgnore an existing
// business_id leaves the row untouched and counts as ignored.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, batch []*types.Company, mode types.ConflictMode) (types.BatchResult, error) {
	if len(batch) == 0 {
		return types.BatchResult{}, nil
	}

	verb := "INSERT OR REPLACE"
	if mode == types.ConflictIgnore {
		verb = "INSERT OR IGNORE"
	}
	query := fmt.Sprintf("%s INTO companies (%s, created_at, updated_at) VALUES (%s)",
		verb,
		strings.Join(upsertColumns, ", "),
		dialectSQLite.placeholderList(1, len(upsertColumns)+2))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.BatchResult{}, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return types.BatchResult{}, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	var result types.BatchResult
	for _, c := range batch {
		args, err := upsertArgs(c)
		if err != nil {
			return types.BatchResult{}, err
		}
		args = append(args, now, now)

		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return types.BatchResult{}, fmt.Errorf("failed to upsert %s: %w", c.BusinessID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Applied++
		} else {
			result.Ignored++
		}
	}

	if err := tx.Commit(); err != nil {
		return types.BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return result, nil
}

// CountCompanies returns the number of rows in the companies table.
func (s *SQLiteStore) CountCompanies(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return n, nil
}

// ListCompanies returns one page of filtered rows ordered by name, plus the
// total count matching the filters.
func (s *SQLiteStore) ListCompanies(ctx context.Context, f types.CompanyFilters, limit, offset int) ([]*types.Company, int64, error) {
	where, args, _ := buildFilters(f, dialectSQLite, 1)

	query := "SELECT " + companyColumns + " FROM companies" + where +
		" ORDER BY name LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return companies, total, nil
}

// GetCompanyByID returns a row by primary key, or nil when absent.
func (s *SQLiteStore) GetCompanyByID(ctx context.Context, id int64) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// GetCompanyByBusinessID returns a row by business id, or nil when absent.
func (s *SQLiteStore) GetCompanyByBusinessID(ctx context.Context, businessID string) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE business_id = ?", businessID)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// ExportCompanies returns every row matching the filters, ordered by name.
func (s *SQLiteStore) ExportCompanies(ctx context.Context, f types.CompanyFilters) ([]*types.Company, error) {
	where, args, _ := buildFilters(f, dialectSQLite, 1)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+companyColumns+" FROM companies"+where+" ORDER BY name", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export companies: %w", err)
	}
	defer rows.Close()

	var companies []*types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// Stats summarizes the companies table.
func (s *SQLiteStore) Stats(ctx context.Context) (*types.RegistryStats, error) {
	total, err := s.CountCompanies(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.RegistryStats{TotalCompanies: total}
	if stats.TopIndustries, err = s.topValues(ctx, "industry"); err != nil {
		return nil, err
	}
	if stats.TopCities, err = s.topValues(ctx, "city"); err != nil {
		return nil, err
	}

	sample, _, err := s.ListCompanies(ctx, types.CompanyFilters{}, statsSampleLimit, 0)
	if err != nil {
		return nil, err
	}
	for _, c := range sample {
		stats.Sample = append(stats.Sample, *c)
	}
	return stats, nil
}

// topValues returns the most frequent non-empty values of a column.
func (s *SQLiteStore) topValues(ctx context.Context, column string) ([]types.ValueCount, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM companies WHERE %s IS NOT NULL AND %s != '' GROUP BY %s ORDER BY COUNT(*) DESC, %s LIMIT %d`,
		column, column, column, column, column, statsTopLimit)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", column, err)
	}
	defer rows.Close()

	var out []types.ValueCount
	for rows.Next() {
		var vc types.ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		out = append(out, vc)
	}
	return out, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
