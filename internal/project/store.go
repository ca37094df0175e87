// Package project persists the metadata records a generation run is seeded
// from. The rest of the system treats it as an opaque record store: plain
// fields in, plain fields out.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("project: record not found")

// Record is the seed metadata for one paper-generation project.
type Record struct {
	ID        string
	Subject   string
	Grade     string
	Board     string
	CreatedAt time.Time
}

// Validate checks the fields callers must supply.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("project: subject is required")
	}
	if strings.TrimSpace(r.Grade) == "" {
		return fmt.Errorf("project: grade is required")
	}
	if strings.TrimSpace(r.Board) == "" {
		return fmt.Errorf("project: board is required")
	}
	return nil
}

// Fetcher is the narrow read contract the sequencer depends on. The seed
// fetch must complete, successfully or not, before any agent may start.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (Record, error)
}

// Store keeps project records in a local sqlite database.
type Store struct {
	db *sql.DB
}

// Open connects to (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	// WAL keeps reads cheap while a single writer is active.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("project: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("project: ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("project: initialize schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		project_id  TEXT PRIMARY KEY,
		subject     TEXT NOT NULL,
		grade       TEXT NOT NULL,
		board       TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create inserts a record, assigning an id and creation time when absent,
// and returns the stored value.
func (s *Store) Create(ctx context.Context, rec Record) (Record, error) {
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, subject, grade, board, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Subject, rec.Grade, rec.Board, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("project: insert record: %w", err)
	}
	return rec, nil
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT project_id, subject, grade, board, created_at FROM projects WHERE project_id = ?`, id)
	var rec Record
	var createdAt int64
	if err := row.Scan(&rec.ID, &rec.Subject, &rec.Grade, &rec.Board, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("project: load record: %w", err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rec, nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, subject, grade, board, created_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("project: list records: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Subject, &rec.Grade, &rec.Board, &createdAt); err != nil {
			return nil, fmt.Errorf("project: scan record: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Fetch implements Fetcher.
func (s *Store) Fetch(ctx context.Context, id string) (Record, error) {
	return s.Get(ctx, id)
}
