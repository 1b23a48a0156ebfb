// Package memory persists past interactions so the assistant can answer
// "what did I ask you earlier". Storage is a local SQLite database.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ts          TEXT NOT NULL,
	attempt_id  TEXT NOT NULL,
	instruction TEXT NOT NULL,
	response    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(ts);
`

// Interaction is one stored exchange.
type Interaction struct {
	ID          int64
	Timestamp   time.Time
	AttemptID   string
	Instruction string
	Response    string
}

// DefaultPath returns the database location under the user's home.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("memory: resolve home: %w", err)
	}
	return filepath.Join(home, ".jarvis", "memory.db"), nil
}

// Store is the interaction database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("memory: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores one exchange.
func (s *Store) Record(ctx context.Context, attemptID, instruction, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (ts, attempt_id, instruction, response) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), attemptID, instruction, response)
	if err != nil {
		return fmt.Errorf("memory: record interaction: %w", err)
	}
	return nil
}

// Recall returns the most recent interactions whose instruction or
// response contains the query, newest first. An empty query returns the
// most recent interactions unfiltered.
func (s *Store) Recall(ctx context.Context, query string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, attempt_id, instruction, response
		 FROM interactions
		 WHERE instruction LIKE ? OR response LIKE ?
		 ORDER BY id DESC LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: recall: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var ts string
		if err := rows.Scan(&it.ID, &ts, &it.AttemptID, &it.Instruction, &it.Response); err != nil {
			return nil, fmt.Errorf("memory: scan row: %w", err)
		}
		it.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: recall rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
