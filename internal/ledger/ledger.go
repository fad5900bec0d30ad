// Package ledger keeps a SQLite history of transfer runs.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mu-bmd-retarget/internal/retarget"
)

// Entry is one recorded transfer job.
type Entry struct {
	ID          int64
	Time        time.Time
	Source      string
	Target      string
	Output      string
	Transferred int
	Skipped     int
	Error       string
	Missing     []retarget.MissingBone
}

// Ledger is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
	PRAGMA synchronous = NORMAL;

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		transferred INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS missing_bones (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		mesh TEXT NOT NULL,
		bone TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_at ON runs(at);
`

// Open opens or creates the ledger database at path. A nil logger means
// slog.Default().
func Open(path string, log *slog.Logger) (*Ledger, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	// Workers share one connection; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: setup %s: %w", path, err)
	}

	log.Debug("ledger opened", "path", path)
	return &Ledger{db: db, log: log}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores e and its missing bones in one transaction and returns the
// new run id. A zero Time is stamped with the current time.
func (l *Ledger) Record(ctx context.Context, e Entry) (int64, error) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (at, source, target, output, transferred, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Time.UnixMilli(), e.Source, e.Target, e.Output, e.Transferred, e.Skipped, e.Error)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ledger: insert run: %w", err)
	}

	for i, mb := range e.Missing {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO missing_bones (run_id, seq, mesh, bone) VALUES (?, ?, ?, ?)`,
			id, i, mb.MeshName, mb.BoneName); err != nil {
			return 0, fmt.Errorf("ledger: insert missing bone: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ledger: commit: %w", err)
	}
	l.log.Debug("run recorded", "id", id, "source", e.Source, "missing", len(e.Missing))
	return id, nil
}

// Recent returns up to limit runs, newest first, with their missing bones.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, at, source, target, output, transferred, skipped, error
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query runs: %w", err)
	}

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.Source, &e.Target, &e.Output, &e.Transferred, &e.Skipped, &e.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		e.Time = time.UnixMilli(at)
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: query runs: %w", err)
	}

	for i := range out {
		missing, err := l.missing(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Missing = missing
	}
	return out, nil
}

func (l *Ledger) missing(ctx context.Context, runID int64) ([]retarget.MissingBone, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT mesh, bone FROM missing_bones WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: query missing bones: %w", err)
	}
	defer rows.Close()

	var out []retarget.MissingBone
	for rows.Next() {
		var mb retarget.MissingBone
		if err := rows.Scan(&mb.MeshName, &mb.BoneName); err != nil {
			return nil, fmt.Errorf("ledger: scan missing bone: %w", err)
		}
		out = append(out, mb)
	}
	return out, rows.Err()
}
