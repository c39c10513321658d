// Package history persists a record of every conversion request in SQLite
// or Postgres.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/retry"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps List.
const MaxListLimit = 500

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("record not found")

// Options configures Open.
type Options struct {
	Driver          string // sqlite or postgres
	DSN             string // file path for sqlite
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
}

// Store reads and writes conversion records.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, opts Options, logger *observability.Logger) (*Store, error) {
	var sqlDriver string
	switch opts.Driver {
	case DriverSQLite:
		sqlDriver = "sqlite3"
	case DriverPostgres:
		sqlDriver = "postgres"
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unsupported history driver %q", opts.Driver), nil)
	}

	db, err := sql.Open(sqlDriver, opts.DSN)
	if err != nil {
		return nil, domain.ConfigError("open history database", err)
	}

	if opts.Driver == DriverSQLite {
		// A single connection keeps :memory: databases alive and serialises writers.
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	backoff := retry.DefaultConfig()
	backoff.MaxRetries = opts.ConnectRetries
	if err := retry.Do(ctx, backoff, "history ping", logger, db.PingContext); err != nil {
		db.Close()
		return nil, domain.IOError("connect to history database", err)
	}

	s := &Store{db: db, driver: opts.Driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return domain.IOError("create history schema", err)
		}
	}
	return nil
}

// Record inserts rec. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, rec domain.ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversion_history (id, action, pdf_path, success, message, error,
			tables_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Action, rec.PDFPath, rec.Success, rec.Message, rec.Error,
		rec.TablesCount, rec.DurationMS, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.IOError("insert history record", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.ConversionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, action, pdf_path, success, message, error, tables_count, duration_ms, created_at
		FROM conversion_history WHERE id = $1
	`
	rec := &domain.ConversionRecord{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Action, &rec.PDFPath, &rec.Success, &rec.Message, &rec.Error,
		&rec.TablesCount, &rec.DurationMS, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.IOError("read history record", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]domain.ConversionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	query := `
		SELECT id, action, pdf_path, success, message, error, tables_count, duration_ms, created_at
		FROM conversion_history
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, domain.IOError("list history records", err)
	}
	defer rows.Close()

	records := make([]domain.ConversionRecord, 0)
	for rows.Next() {
		var rec domain.ConversionRecord
		if err := rows.Scan(
			&rec.ID, &rec.Action, &rec.PDFPath, &rec.Success, &rec.Message, &rec.Error,
			&rec.TablesCount, &rec.DurationMS, &rec.CreatedAt,
		); err != nil {
			return nil, domain.IOError("scan history record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IOError("list history records", err)
	}
	return records, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversion_history (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		pdf_path TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		tables_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversion_history_created_at ON conversion_history (created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversion_history (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		pdf_path TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		tables_count INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversion_history_created_at ON conversion_history (created_at DESC)`,
}
