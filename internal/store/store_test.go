package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return s, mockPool
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the table", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlSchema)).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		require.NoError(t, s.EnsureSchema(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		dbErr := errors.New("permission denied")
		mockPool.ExpectExec(flexibleSQLMatcher(sqlSchema)).WillReturnError(dbErr)

		err := s.EnsureSchema(ctx)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestStartRun(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockStore(t)

	run := Run{
		ID:        uuid.New(),
		Script:    "student_currency",
		PID:       4242,
		StartedAt: time.Date(2025, 3, 3, 9, 30, 0, 0, time.FixedZone("PKT", 5*3600)),
	}
	mockPool.ExpectExec(flexibleSQLMatcher(sqlStartRun)).
		WithArgs(run.ID, run.Script, run.PID, StatusRunning, run.StartedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.StartRun(ctx, run))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestFinishRun(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	finished := time.Date(2025, 3, 3, 9, 31, 0, 0, time.UTC)

	t.Run("passed", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlFinishRun)).
			WithArgs(id, StatusPassed, "", finished).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, s.FinishRun(ctx, id, nil, finished))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("failed keeps the error text", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlFinishRun)).
			WithArgs(id, StatusFailed, "Login: Email field did not appear", finished).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, s.FinishRun(ctx, id, errors.New("Login: Email field did not appear"), finished))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown run", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlFinishRun)).
			WithArgs(id, StatusPassed, "", finished).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := s.FinishRun(ctx, id, nil, finished)
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestRecentRuns(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "script", "pid", "status", "error", "started_at", "finished_at"}

	t.Run("scans rows newest first", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		started := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
		finished := started.Add(90 * time.Second)
		first, second := uuid.New(), uuid.New()

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlRecentRuns)).
			WithArgs(5).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(first, "teacher_tabs", 10, StatusRunning, "", started.Add(time.Hour), nil).
				AddRow(second, "student_currency", 11, StatusFailed, "boom", started, &finished))

		runs, err := s.RecentRuns(ctx, 5)
		require.NoError(t, err)
		require.Len(t, runs, 2)

		assert.Equal(t, first, runs[0].ID)
		assert.Nil(t, runs[0].FinishedAt)
		assert.Zero(t, runs[0].Duration())

		assert.Equal(t, "student_currency", runs[1].Script)
		assert.Equal(t, "boom", runs[1].Error)
		require.NotNil(t, runs[1].FinishedAt)
		assert.Equal(t, 90*time.Second, runs[1].Duration())
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("defaults the limit", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlRecentRuns)).
			WithArgs(20).
			WillReturnRows(pgxmock.NewRows(columns))

		runs, err := s.RecentRuns(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("query error", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		dbErr := errors.New("connection reset")
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlRecentRuns)).WithArgs(20).WillReturnError(dbErr)

		_, err := s.RecentRuns(ctx, -1)
		assert.ErrorIs(t, err, dbErr)
	})
}
