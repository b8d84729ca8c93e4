package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER,
			root TEXT,
			files INTEGER,
			findings INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS file_reports (
			run_id INTEGER REFERENCES runs(id) ON DELETE CASCADE,
			uri TEXT,
			content_hash TEXT,
			payload BLOB,
			PRIMARY KEY (run_id, uri)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_file_reports_uri ON file_reports(uri);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, reports []FileReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Files == 0 {
		run.Files = len(reports)
	}
	if run.Findings == 0 {
		for _, r := range reports {
			run.Findings += len(r.Findings)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, root, files, findings) VALUES (?, ?, ?, ?)
	`, run.StartedAt.UnixNano(), run.Root, run.Files, run.Findings)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO file_reports (run_id, uri, content_hash, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, uri) DO UPDATE SET content_hash=excluded.content_hash, payload=excluded.payload
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range reports {
		payload, err := msgpack.Marshal(r.Findings)
		if err != nil {
			return 0, fmt.Errorf("failed to encode findings of %s: %w", r.URI, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, r.URI, r.ContentHash, payload); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, started_at, root, files, findings FROM runs ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		if err := rows.Scan(&run.ID, &startedAt, &run.Root, &run.Files, &run.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) LoadFindings(ctx context.Context, runID int64) ([]FileReport, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uri, content_hash, payload FROM file_reports WHERE run_id = ? ORDER BY uri", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []FileReport
	for rows.Next() {
		var r FileReport
		var payload []byte
		if err := rows.Scan(&r.URI, &r.ContentHash, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if len(payload) > 0 {
			if err := msgpack.Unmarshal(payload, &r.Findings); err != nil {
				return nil, fmt.Errorf("failed to decode findings of %s: %w", r.URI, err)
			}
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
