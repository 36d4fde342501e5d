// Package store indexes training runs and episode outcomes in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Run is the header row of a training or evaluation run.
type Run struct {
	ID        string
	Seed      int64
	Scenario  string
	StartedAt time.Time
}

// Episode is one finished episode and its per-label reward sums.
type Episode struct {
	Episode   int
	Steps     int
	Truncated bool
	Winner    string
	Rewards   map[string]float64
}

func NewRunID() string { return uuid.NewString() }

func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
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
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			scenario TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			truncated INTEGER NOT NULL,
			winner TEXT NOT NULL,
			PRIMARY KEY (run_id, episode)
		);`,
		`CREATE TABLE IF NOT EXISTS episode_rewards (
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			label TEXT NOT NULL,
			reward REAL NOT NULL,
			PRIMARY KEY (run_id, episode, label),
			FOREIGN KEY (run_id, episode) REFERENCES episodes(run_id, episode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_winner ON episodes(run_id, winner);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, seed, scenario, started_at) VALUES(?,?,?,?)`,
		r.ID, r.Seed, r.Scenario, r.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordEpisode writes the episode row and its rewards in one transaction.
func (s *Store) RecordEpisode(ctx context.Context, runID string, ep Episode) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("record episode %d of %s: %w", ep.Episode, runID, err)
		}
	}()

	truncated := 0
	if ep.Truncated {
		truncated = 1
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO episodes(run_id, episode, steps, truncated, winner) VALUES(?,?,?,?,?)`,
		runID, ep.Episode, ep.Steps, truncated, ep.Winner); err != nil {
		return err
	}
	labels := make([]string, 0, len(ep.Rewards))
	for l := range ep.Rewards {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO episode_rewards(run_id, episode, label, reward) VALUES(?,?,?,?)`,
			runID, ep.Episode, l, ep.Rewards[l]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Wins counts finished episodes per winning faction for a run. Truncated
// and draw episodes are reported under the empty string.
func (s *Store) Wins(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner, COUNT(*) FROM episodes WHERE run_id=? GROUP BY winner`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			winner string
			n      int
		)
		if err := rows.Scan(&winner, &n); err != nil {
			return nil, err
		}
		out[winner] = n
	}
	return out, rows.Err()
}
