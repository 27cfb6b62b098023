// Package store keeps the run registry: one row per tool invocation so
// `dossier runs` can answer what ran against a workspace and when.
// Artifacts under analysis/ stay the source of truth; the registry is
// bookkeeping and is never read back into scoring.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	tool        TEXT NOT NULL,
	workspace   TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	status      TEXT NOT NULL,
	counts      TEXT NOT NULL DEFAULT '{}',
	notes       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded tool invocation.
type Run struct {
	RunID      string
	Tool       string // resolve, crossref, chains, score, ...
	Workspace  string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string         // ok | failed
	Counts     map[string]int // tool-specific tallies
	Notes      string
}

// Store is the sqlite-backed run registry.
type Store struct {
	db *sql.DB
}

// Open opens the registry at path, creating the file and schema on
// first use.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init run store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record upserts one run. Re-recording the same run_id overwrites the
// earlier row, so a tool can record a start and settle the outcome at
// the end.
func (s *Store) Record(run *Run) error {
	counts := run.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	encoded, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}

	_, err = s.db.Exec(`
INSERT INTO runs (run_id, tool, workspace, started_at, finished_at, status, counts, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	tool = excluded.tool,
	workspace = excluded.workspace,
	started_at = excluded.started_at,
	finished_at = excluded.finished_at,
	status = excluded.status,
	counts = excluded.counts,
	notes = excluded.notes`,
		run.RunID,
		run.Tool,
		run.Workspace,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Status,
		string(encoded),
		run.Notes,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit
// falls back to 20.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
SELECT run_id, tool, workspace, started_at, finished_at, status, counts, notes
FROM runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished, counts string
		if err := rows.Scan(&run.RunID, &run.Tool, &run.Workspace, &started, &finished, &run.Status, &counts, &run.Notes); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.StartedAt = parseStamp(started)
		run.FinishedAt = parseStamp(finished)
		if err := json.Unmarshal([]byte(counts), &run.Counts); err != nil {
			run.Counts = nil
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
