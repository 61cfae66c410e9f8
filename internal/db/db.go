package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/xpkg/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a history record does not exist
var ErrNotFound = errors.New("history record not found")

// DB represents the database with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New creates a new database instance with separate read/write pools
func New(ctx context.Context, dbPath string) (*DB, error) {
	// Connection string with pragmas
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Path returns the database file
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Ping checks that both pools can reach the file
func (db *DB) Ping(ctx context.Context) error {
	if err := db.write.PingContext(ctx); err != nil {
		return fmt.Errorf("ping write connection: %w", err)
	}
	if err := db.read.PingContext(ctx); err != nil {
		return fmt.Errorf("ping read connection: %w", err)
	}
	return nil
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL,
    requested TEXT NOT NULL,
    packages TEXT NOT NULL,
    state TEXT NOT NULL,
    reason TEXT,
    dry_run INTEGER NOT NULL DEFAULT 0,
    trace TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_started ON operations(started_at);
	`

	if _, err := db.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record stores rec and sets its ID
func (db *DB) Record(ctx context.Context, rec *core.HistoryRecord) error {
	requested, err := json.Marshal(nonNil(rec.Requested))
	if err != nil {
		return fmt.Errorf("marshal requested: %w", err)
	}
	packages, err := json.Marshal(nonNil(rec.Packages))
	if err != nil {
		return fmt.Errorf("marshal packages: %w", err)
	}
	trace, err := json.Marshal(nonNil(rec.Trace))
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	query := `
INSERT INTO operations (operation, requested, packages, state, reason, dry_run, trace, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.write.ExecContext(ctx, query,
		string(rec.Operation),
		string(requested),
		string(packages),
		rec.State,
		rec.Reason,
		rec.DryRun,
		string(trace),
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read operation id: %w", err)
	}
	rec.ID = id
	return nil
}

// Get retrieves one record by ID
func (db *DB) Get(ctx context.Context, id int64) (*core.HistoryRecord, error) {
	query := `
SELECT id, operation, requested, packages, state, reason, dry_run, trace, started_at, finished_at
FROM operations WHERE id = ?
	`

	rec, err := scanRecord(db.read.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the most recent records first. limit <= 0 returns all.
func (db *DB) List(ctx context.Context, limit int) ([]core.HistoryRecord, error) {
	query := `
SELECT id, operation, requested, packages, state, reason, dry_run, trace, started_at, finished_at
FROM operations ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var records []core.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Prune deletes records started before cutoff and returns how many went
func (db *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.write.ExecContext(ctx, "DELETE FROM operations WHERE started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune operations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*core.HistoryRecord, error) {
	var rec core.HistoryRecord
	var operation, requested, packages, trace string
	var reason sql.NullString

	err := row.Scan(
		&rec.ID,
		&operation,
		&requested,
		&packages,
		&rec.State,
		&reason,
		&rec.DryRun,
		&trace,
		&rec.StartedAt,
		&rec.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan operation: %w", err)
	}

	rec.Operation = core.Operation(operation)
	rec.Reason = reason.String
	if err := json.Unmarshal([]byte(requested), &rec.Requested); err != nil {
		return nil, fmt.Errorf("unmarshal requested: %w", err)
	}
	if err := json.Unmarshal([]byte(packages), &rec.Packages); err != nil {
		return nil, fmt.Errorf("unmarshal packages: %w", err)
	}
	if err := json.Unmarshal([]byte(trace), &rec.Trace); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
