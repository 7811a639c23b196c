package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/baxromumarov/job-extractor/internal/model"
)

//go:embed schema/postgres.sql
var postgresSchema string

// Postgres keeps the latest outcome per URL in the job_records table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) RunMigrations(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *Postgres) Write(ctx context.Context, o model.Outcome) error {
	row, err := rowFor(o)
	if err != nil {
		return err
	}

	// Every column takes the new value so a failed rerun leaves no stale record.
	_, err = s.db.ExecContext(ctx, `
INSERT INTO job_records (url, state, record_id, title, company, location, salary_min, salary_max, currency, fetch_strategy, record, warnings, error, extracted_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
ON CONFLICT (url) DO UPDATE SET
    state = EXCLUDED.state,
    record_id = EXCLUDED.record_id,
    title = EXCLUDED.title,
    company = EXCLUDED.company,
    location = EXCLUDED.location,
    salary_min = EXCLUDED.salary_min,
    salary_max = EXCLUDED.salary_max,
    currency = EXCLUDED.currency,
    fetch_strategy = EXCLUDED.fetch_strategy,
    record = EXCLUDED.record,
    warnings = EXCLUDED.warnings,
    error = EXCLUDED.error,
    extracted_at = EXCLUDED.extracted_at,
    updated_at = NOW()
`, row.url, row.state, row.recordID, row.title, row.company, row.location,
		row.salaryMin, row.salaryMax, row.currency, row.strategy,
		row.record, row.warnings, row.err, row.extractedAt)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", o.URL, err)
	}
	return nil
}

// outcomeRow is an Outcome flattened into column values. JSON columns are
// passed as strings so both drivers store them as text.
type outcomeRow struct {
	url         string
	state       string
	recordID    *string
	title       *string
	company     *string
	location    *string
	salaryMin   *float64
	salaryMax   *float64
	currency    *string
	strategy    *string
	record      *string
	warnings    *string
	err         *string
	extractedAt *time.Time
}

func rowFor(o model.Outcome) (outcomeRow, error) {
	row := outcomeRow{url: o.URL, state: string(o.State)}
	if o.Err != nil {
		row.err = model.String(o.Err.Error())
	}
	if len(o.Warnings) > 0 {
		raw, err := json.Marshal(o.Warnings)
		if err != nil {
			return row, fmt.Errorf("encode warnings: %w", err)
		}
		row.warnings = model.String(string(raw))
	}
	rec := o.Record
	if rec == nil {
		return row, nil
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return row, fmt.Errorf("encode record: %w", err)
	}
	row.record = model.String(string(raw))
	row.recordID = model.String(rec.ID)
	row.title = rec.Title
	row.company = rec.Company
	row.location = rec.Location
	row.salaryMin = rec.SalaryMin
	row.salaryMax = rec.SalaryMax
	row.currency = rec.Currency
	if rec.FetchStrategy != "" {
		row.strategy = model.String(string(rec.FetchStrategy))
	}
	extracted := rec.ExtractedAt
	row.extractedAt = &extracted
	return row, nil
}
