package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/baxromumarov/job-extractor/internal/model"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// insertSQLite replaces every column on conflict so a row always describes
// the latest outcome for its URL; a failed rerun clears the old record.
const insertSQLite = `
INSERT INTO job_records (url, state, record_id, title, company, location, salary_min, salary_max, currency, fetch_strategy, record, warnings, error, extracted_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (url) DO UPDATE SET
    state = excluded.state,
    record_id = excluded.record_id,
    title = excluded.title,
    company = excluded.company,
    location = excluded.location,
    salary_min = excluded.salary_min,
    salary_max = excluded.salary_max,
    currency = excluded.currency,
    fetch_strategy = excluded.fetch_strategy,
    record = excluded.record,
    warnings = excluded.warnings,
    error = excluded.error,
    extracted_at = excluded.extracted_at,
    updated_at = CURRENT_TIMESTAMP
`

// SQLite writes outcomes to a local database file. The driver does not allow
// concurrent writes, so every insert goes through one goroutine; Write is
// safe to call from many.
type SQLite struct {
	db   *sql.DB
	rows chan outcomeRow
	wg   sync.WaitGroup

	mu      sync.Mutex
	err     error
	closed  bool
	closeMu sync.Mutex
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite database file not set")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &SQLite{
		db: db,
		// Buffered as outcomes come in bursts when several workers finish at once.
		rows: make(chan outcomeRow, 20),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

func (s *SQLite) writeLoop() {
	defer s.wg.Done()
	for row := range s.rows {
		_, err := s.db.Exec(insertSQLite,
			row.url, row.state, row.recordID, row.title, row.company, row.location,
			row.salaryMin, row.salaryMax, row.currency, row.strategy,
			row.record, row.warnings, row.err, row.extractedAt)
		if err != nil {
			slog.Error("sqlite insert failed", "url", row.url, "error", err)
			s.setErr(fmt.Errorf("failed to save %s: %w", row.url, err))
		}
	}
}

func (s *SQLite) Write(ctx context.Context, o model.Outcome) error {
	if err := s.loadErr(); err != nil {
		return err
	}
	row, err := rowFor(o)
	if err != nil {
		return err
	}

	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return errors.New("sqlite sink closed")
	}
	select {
	case s.rows <- row:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for queued rows and reports the first insert failure.
func (s *SQLite) Close() error {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.rows)
	}
	s.closeMu.Unlock()

	s.wg.Wait()
	return errors.Join(s.loadErr(), s.db.Close())
}

func (s *SQLite) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *SQLite) loadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
