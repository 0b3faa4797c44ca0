package activities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser/browsertest"
)

func TestEnv_Pause(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroPaceSkips", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)
		require.NoError(t, env.Pause(ctx, 5*time.Second))
		assert.Zero(t, page.Slept())
	})

	t.Run("Scaled", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)
		env.App.Pace = 0.5
		require.NoError(t, env.Pause(ctx, 4*time.Second))
		assert.Equal(t, 2*time.Second, page.Slept())
	})

	t.Run("Cancelled", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, env.Pause(cctx, time.Second), context.Canceled)
	})
}

func TestEnv_Poll(t *testing.T) {
	ctx := context.Background()

	t.Run("MetAfterRetries", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)
		calls := 0
		err := env.poll(ctx, time.Second, func() (bool, error) {
			calls++
			return calls == 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2*pollEvery, page.Slept())
	})

	t.Run("TimesOutWithLastError", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)
		boom := errors.New("boom")
		err := env.poll(ctx, time.Second, func() (bool, error) { return false, boom })
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, time.Second, page.Slept())
	})
}

func TestEnv_CredentialsAndRounds(t *testing.T) {
	env, _ := newTestEnv(t, browsertest.NewPage())

	assert.Equal(t, "teacher@example.com", env.Credentials(RoleTeacher).Email)
	assert.Equal(t, "student@example.com", env.Credentials(RoleStudent).Email)

	assert.Equal(t, 5, env.rounds())
	env.App.MaxRounds = 0
	assert.Equal(t, 50, env.rounds())
}

func TestEnv_Screenshot(t *testing.T) {
	page := browsertest.NewPage()
	env, logs := newTestEnv(t, page)
	tr := env.Journal.Begin("Navigation Test")

	env.screenshot(context.Background(), tr, "Student Feedback_error")

	shots := page.Screenshots()
	require.Len(t, shots, 1)
	assert.Contains(t, shots[0], "student_feedback_error_")

	env.Shots = nil
	env.screenshot(context.Background(), tr, "ignored")
	assert.Len(t, page.Screenshots(), 1)
	assert.NotEmpty(t, logs.FilterMessageSnippet("Saved screenshot").All())
}
