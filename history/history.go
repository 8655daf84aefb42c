// Package history journals simulation runs to SQLite so growth can be
// compared across seeds and parameter sets.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/astei/druidcraft/sim"
)

var ErrUnknownRun = errors.New("history: unknown run")

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			end_tick INTEGER NOT NULL DEFAULT 0,
			finished INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block TEXT NOT NULL,
			outcome TEXT NOT NULL,
			age INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS events_run_tick ON events(run_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one journaled simulation. It implements sim.Journal.
type Run struct {
	ID    string
	store *Store
}

var _ sim.Journal = (*Run)(nil)

// BeginRun registers a new run. source names the world it started from.
func (s *Store) BeginRun(seed int64, source string) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs(id, seed, source, started_at) VALUES(?, ?, ?, ?)`,
		id, seed, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("history: begin run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

func (r *Run) Record(tick int64, events []sim.Event) error {
	tx, err := r.store.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO events(run_id, tick, x, y, z, block, outcome, age) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, ev := range events {
		if _, err := stmt.Exec(r.ID, ev.Tick, ev.Pos.X, ev.Pos.Y, ev.Pos.Z, ev.Block, ev.Outcome.String(), ev.Age); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Finish stamps the final tick on the run.
func (r *Run) Finish(endTick int64) error {
	_, err := r.store.db.Exec(`UPDATE runs SET end_tick = ?, finished = 1 WHERE id = ?`, endTick, r.ID)
	return err
}

type Summary struct {
	ID        string
	Seed      int64
	Source    string
	StartedAt string
	EndTick   int64
	Finished  bool
	// Outcomes counts journaled events by outcome name.
	Outcomes map[string]int
}

func (s *Store) Summary(id string) (Summary, error) {
	sum := Summary{ID: id, Outcomes: make(map[string]int)}
	var finished int
	err := s.db.QueryRow(`SELECT seed, source, started_at, end_tick, finished FROM runs WHERE id = ?`, id).
		Scan(&sum.Seed, &sum.Source, &sum.StartedAt, &sum.EndTick, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	if err != nil {
		return Summary{}, err
	}
	sum.Finished = finished != 0

	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM events WHERE run_id = ? GROUP BY outcome`, id)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return Summary{}, err
		}
		sum.Outcomes[outcome] = n
	}
	return sum, rows.Err()
}

// Runs lists run ids, newest first.
func (s *Store) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
