package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Run statuses recorded in automation_runs.
const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
)

// ErrRunNotFound is returned when finishing a run that was never started.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Run is one execution of an automation script.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	Script     string     `json:"script"`
	PID        int        `json:"pid"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration is the run's wall time, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run history in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const sqlSchema = `
    CREATE TABLE IF NOT EXISTS automation_runs (
        id          UUID PRIMARY KEY,
        script      TEXT NOT NULL,
        pid         INTEGER NOT NULL,
        status      TEXT NOT NULL,
        error       TEXT NOT NULL DEFAULT '',
        started_at  TIMESTAMPTZ NOT NULL,
        finished_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS automation_runs_started_at_idx ON automation_runs (started_at DESC);
`

// EnsureSchema creates the run table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const sqlStartRun = `
    INSERT INTO automation_runs (id, script, pid, status, started_at)
    VALUES ($1, $2, $3, $4, $5);
`

// StartRun records a run as running.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = StatusRunning
	}
	if _, err := s.pool.Exec(ctx, sqlStartRun, run.ID, run.Script, run.PID, run.Status, run.StartedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	s.log.Debug("Run recorded.", zap.String("run_id", run.ID.String()), zap.String("script", run.Script))
	return nil
}

const sqlFinishRun = `
    UPDATE automation_runs
    SET status = $2, error = $3, finished_at = $4
    WHERE id = $1;
`

// FinishRun stores the outcome of a run. A nil runErr means it passed.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, runErr error, finishedAt time.Time) error {
	status, errText := StatusPassed, ""
	if runErr != nil {
		status, errText = StatusFailed, runErr.Error()
	}

	tag, err := s.pool.Exec(ctx, sqlFinishRun, id, status, errText, finishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const sqlRecentRuns = `
    SELECT id, script, pid, status, error, started_at, finished_at
    FROM automation_runs
    ORDER BY started_at DESC
    LIMIT $1;
`

// RecentRuns lists up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, sqlRecentRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Script, &r.PID, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return runs, nil
}
