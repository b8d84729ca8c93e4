package storage

import (
	"context"
	"time"
)

// Store persists the history of check runs.
type Store interface {
	RunStore
	Close() error
}

// RunStore defines operations for recording and reading check runs.
type RunStore interface {
	// SaveRun records a run and its per-file reports, returning the run ID.
	SaveRun(ctx context.Context, run Run, reports []FileReport) (int64, error)

	// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// LoadFindings returns the reports of a run, ordered by URI.
	LoadFindings(ctx context.Context, runID int64) ([]FileReport, error)
}

// Run summarizes one check run.
type Run struct {
	ID        int64
	StartedAt time.Time
	Root      string
	Files     int
	Findings  int
}

// FileReport holds the findings of one document within a run.
type FileReport struct {
	URI         string
	ContentHash string
	Findings    []Finding
}

// Finding is one stored diagnostic.
type Finding struct {
	Line    int    `msgpack:"line"`
	Column  int    `msgpack:"column"`
	Class   string `msgpack:"class"`
	Method  string `msgpack:"method"`
	Action  string `msgpack:"action"`
	Type    string `msgpack:"type"`
	Message string `msgpack:"message"`
}
