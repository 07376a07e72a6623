package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/company-registry/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id BIGSERIAL PRIMARY KEY,
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
	employees BIGINT,
	revenue DOUBLE PRECISION,
	status TEXT,
	description TEXT,
	metadata TEXT,
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
)`

// PostgresStore implements Store on a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres establishes a connection pool to the database.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the companies table and its indexes if absent.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	for _, idx := range companyIndexes {
		if _, err := p.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// RecreateSchema drops the companies table and builds it fresh.
func (p *PostgresStore) RecreateSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DROP TABLE IF EXISTS companies`); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return p.EnsureSchema(ctx)
}

// postgresUpsertQuery renders the upsert statement for the conflict mode.
func postgresUpsertQuery(mode types.ConflictMode) string {
	insert := fmt.Sprintf("INSERT INTO companies (%s) VALUES (%s)",
		strings.Join(upsertColumns, ", "),
		dialectPostgres.placeholderList(1, len(upsertColumns)))
	if mode == types.ConflictIgnore {
		return insert + " ON CONFLICT (business_id) DO NOTHING"
	}

	// business_id is the conflict key; every other mapped column is
	// overwritten on replace.
	sets := make([]string, 0, len(upsertColumns))
	for _, col := range upsertColumns[1:] {
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	sets = append(sets, "updated_at = NOW()")
	return insert + " ON CONFLICT (business_id) DO UPDATE SET " + strings.Join(sets, ", ")
}

// UpsertBatch pipelines one batch as a single implicit transaction. An error
// on any row aborts and rolls back the whole batch.
func (p *PostgresStore) UpsertBatch(ctx context.Context, batch []*types.Company, mode types.ConflictMode) (types.BatchResult, error) {
	if len(batch) == 0 {
		return types.BatchResult{}, nil
	}

	query := postgresUpsertQuery(mode)
	b := &pgx.Batch{}
	for _, c := range batch {
		args, err := upsertArgs(c)
		if err != nil {
			return types.BatchResult{}, err
		}
		b.Queue(query, args...)
	}

	br := p.pool.SendBatch(ctx, b)
	var result types.BatchResult
	for range batch {
		ct, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return types.BatchResult{}, fmt.Errorf("failed to upsert batch: %w", err)
		}
		if ct.RowsAffected() > 0 {
			result.Applied++
		} else {
			result.Ignored++
		}
	}
	if err := br.Close(); err != nil {
		return types.BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return result, nil
}

// CountCompanies returns the number of rows in the companies table.
func (p *PostgresStore) CountCompanies(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return n, nil
}

// ListCompanies returns one page of filtered rows ordered by name, plus the
// total count matching the filters.
func (p *PostgresStore) ListCompanies(ctx context.Context, f types.CompanyFilters, limit, offset int) ([]*types.Company, int64, error) {
	where, args, n := buildFilters(f, dialectPostgres, 1)

	query := "SELECT " + companyColumns + " FROM companies" + where +
		" ORDER BY name LIMIT " + dialectPostgres.placeholder(n) +
		" OFFSET " + dialectPostgres.placeholder(n+1)
	rows, err := p.pool.Query(ctx, query, append(append([]any{}, args...), limit, offset)...)
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
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return companies, total, nil
}

// GetCompanyByID returns a row by primary key, or nil when absent.
func (p *PostgresStore) GetCompanyByID(ctx context.Context, id int64) (*types.Company, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE id = $1", id)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// GetCompanyByBusinessID returns a row by business id, or nil when absent.
func (p *PostgresStore) GetCompanyByBusinessID(ctx context.Context, businessID string) (*types.Company, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE business_id = $1", businessID)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// ExportCompanies returns every row matching the filters, ordered by name.
func (p *PostgresStore) ExportCompanies(ctx context.Context, f types.CompanyFilters) ([]*types.Company, error) {
	where, args, _ := buildFilters(f, dialectPostgres, 1)

	rows, err := p.pool.Query(ctx,
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
func (p *PostgresStore) Stats(ctx context.Context) (*types.RegistryStats, error) {
	total, err := p.CountCompanies(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.RegistryStats{TotalCompanies: total}
	if stats.TopIndustries, err = p.topValues(ctx, "industry"); err != nil {
		return nil, err
	}
	if stats.TopCities, err = p.topValues(ctx, "city"); err != nil {
		return nil, err
	}

	sample, _, err := p.ListCompanies(ctx, types.CompanyFilters{}, statsSampleLimit, 0)
	if err != nil {
		return nil, err
	}
	for _, c := range sample {
		stats.Sample = append(stats.Sample, *c)
	}
	return stats, nil
}

// topValues returns the most frequent non-empty values of a column.
func (p *PostgresStore) topValues(ctx context.Context, column string) ([]types.ValueCount, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM companies WHERE %s IS NOT NULL AND %s != '' GROUP BY %s ORDER BY COUNT(*) DESC, %s LIMIT %d`,
		column, column, column, column, column, statsTopLimit)

	rows, err := p.pool.Query(ctx, query)
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

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
