// Package history records finalized deployments in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteStore implements ports.HistoryStore using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open opens the database at dsn, creating its directory, and runs migrations.
func Open(dsn string) (*SQLiteStore, error) {
	if dsn != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
			return nil, NewStoreError("Open", "", "failed to create database directory", errors.Join(ErrConnectionFailed, err))
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := sqlx.Open("sqlite3", dsn+sep+"_busy_timeout=5000")
	if err != nil {
		return nil, NewStoreError("Open", "", "failed to open database", errors.Join(ErrConnectionFailed, err))
	}
	// A single connection keeps :memory: databases intact and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, NewStoreError("Open", "", "failed to ping database", errors.Join(ErrConnectionFailed, err))
	}

	if err := runMigrations(db.DB); err != nil {
		_ = db.Close()
		return nil, NewStoreError("Open", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type deploymentRow struct {
	ID            int64  `db:"id"`
	RequestID     string `db:"request_id"`
	Environment   string `db:"environment"`
	Action        string `db:"action"`
	DryRun        bool   `db:"dry_run"`
	OverallStatus string `db:"overall_status"`
	StartedAt     string `db:"started_at"`
	FinishedAt    string `db:"finished_at"`
	Results       string `db:"results"`
}

// Record stores a finalized deployment.
func (s *SQLiteStore) Record(ctx context.Context, record ports.DeploymentRecord) error {
	results := record.Results
	if results == nil {
		results = []ports.StepRecord{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return NewStoreError("Record", record.RequestID, "failed to serialize results", ErrInvalidData)
	}

	query := `
		INSERT INTO deployments (
			request_id, environment, action, dry_run, overall_status,
			started_at, finished_at, results
		) VALUES (
			:request_id, :environment, :action, :dry_run, :overall_status,
			:started_at, :finished_at, :results
		)`

	row := deploymentRow{
		RequestID:     record.RequestID,
		Environment:   record.Environment,
		Action:        record.Action,
		DryRun:        record.DryRun,
		OverallStatus: record.OverallStatus,
		StartedAt:     record.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:    record.FinishedAt.UTC().Format(time.RFC3339Nano),
		Results:       string(resultsJSON),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: deployments.request_id") {
			return NewStoreError("Record", record.RequestID, "already recorded", ErrDuplicateRequest)
		}
		return NewStoreError("Record", record.RequestID, err.Error(), err)
	}

	return nil
}

// List returns recorded deployments, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ports.HistoryFilter) ([]ports.DeploymentRecord, error) {
	query := `SELECT * FROM deployments`
	args := []any{}

	if filter.Environment != "" {
		query += ` WHERE environment = ?`
		args = append(args, filter.Environment)
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []deploymentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("List", "", err.Error(), err)
	}

	records := make([]ports.DeploymentRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r deploymentRow) toRecord() (ports.DeploymentRecord, error) {
	started, err := time.Parse(time.RFC3339Nano, r.StartedAt)
	if err != nil {
		return ports.DeploymentRecord{}, NewStoreError("List", r.RequestID, "invalid started_at", ErrInvalidData)
	}
	finished, err := time.Parse(time.RFC3339Nano, r.FinishedAt)
	if err != nil {
		return ports.DeploymentRecord{}, NewStoreError("List", r.RequestID, "invalid finished_at", ErrInvalidData)
	}

	var results []ports.StepRecord
	if err := json.Unmarshal([]byte(r.Results), &results); err != nil {
		return ports.DeploymentRecord{}, NewStoreError("List", r.RequestID, "failed to deserialize results", ErrInvalidData)
	}

	return ports.DeploymentRecord{
		RequestID:     r.RequestID,
		Environment:   r.Environment,
		Action:        r.Action,
		DryRun:        r.DryRun,
		OverallStatus: r.OverallStatus,
		StartedAt:     started,
		FinishedAt:    finished,
		Results:       results,
	}, nil
}

// Ensure SQLiteStore implements ports.HistoryStore.
var _ ports.HistoryStore = (*SQLiteStore)(nil)
