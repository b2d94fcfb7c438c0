package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Source records where a shown command came from
type Source string

const (
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
)

// Entry represents a single command history entry
type Entry struct {
	ID        string
	Timestamp time.Time
	Prompt    string
	Command   string
	Source    Source
	Executed  bool
	ExitCode  int
}

// NewEntry creates a new history entry with a fresh ID and the current time
func NewEntry(prompt, command string, source Source, executed bool, exitCode int) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Prompt:    prompt,
		Command:   command,
		Source:    source,
		Executed:  executed,
		ExitCode:  exitCode,
	}
}

// Store is an append-only history log in SQLite
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		prompt TEXT NOT NULL,
		command TEXT NOT NULL,
		source TEXT NOT NULL,
		executed INTEGER NOT NULL,
		exit_code INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Record appends an entry
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, created_at, prompt, command, source, executed, exit_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(timeLayout), e.Prompt, e.Command, string(e.Source), boolToInt(e.Executed), e.ExitCode)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, prompt, command, source, executed, exit_code
		 FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
			source    string
			executed  int
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Prompt, &e.Command, &source, &executed, &e.ExitCode); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp, _ = time.Parse(timeLayout, createdAt)
		e.Source = Source(source)
		e.Executed = executed != 0
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
