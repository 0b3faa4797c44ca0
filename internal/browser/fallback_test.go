package browser_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/browser/browsertest"
)

var (
	primary  = browser.XPath("//span[contains(text(),'Classroom')]")
	fallback = browser.XPath("//a[normalize-space(text())='Classroom']")
)

func TestFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("PrimaryWins", func(t *testing.T) {
		page := browsertest.NewPage().Add(primary, 1).Add(fallback, 1)
		sel, err := browser.First(ctx, page, time.Second, primary, fallback)
		require.NoError(t, err)
		assert.Equal(t, primary, sel)
		assert.Zero(t, page.CallCount("WaitVisible", fallback), "fallback must not be tried when primary matches")
	})

	t.Run("FallsBack", func(t *testing.T) {
		page := browsertest.NewPage().Add(fallback, 1)
		sel, err := browser.First(ctx, page, time.Second, primary, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, sel)
	})

	t.Run("HiddenPrimarySkipped", func(t *testing.T) {
		page := browsertest.NewPage().Add(primary, 1).Hide(primary).Add(fallback, 1)
		sel, err := browser.First(ctx, page, time.Second, primary, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, sel)
	})

	t.Run("NoneMatch", func(t *testing.T) {
		page := browsertest.NewPage()
		_, err := browser.First(ctx, page, time.Second, primary, fallback)
		require.Error(t, err)
		assert.True(t, browser.IsNoMatch(err))
		// Every attempt is listed in the error.
		assert.Equal(t, 1, strings.Count(err.Error(), "; "))
		assert.Contains(t, err.Error(), primary.String())
		assert.Contains(t, err.Error(), fallback.String())
	})

	t.Run("NoSelectors", func(t *testing.T) {
		_, err := browser.First(ctx, browsertest.NewPage(), time.Second)
		assert.ErrorIs(t, err, browser.ErrNoMatch)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := browser.First(cctx, browsertest.NewPage(), time.Second, primary, fallback)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, browser.IsNoMatch(err))
	})
}

func TestClickFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("ClicksResolvedSelector", func(t *testing.T) {
		page := browsertest.NewPage().Add(fallback, 1)
		sel, err := browser.ClickFirst(ctx, page, time.Second, primary, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, sel)
		assert.Equal(t, 1, page.CallCount("JSClick", fallback))
	})

	t.Run("ClickFailureWrapped", func(t *testing.T) {
		boom := errors.New("detached")
		page := browsertest.NewPage().Add(primary, 1).Fail("JSClick", primary, boom)
		_, err := browser.ClickFirst(ctx, page, time.Second, primary)
		assert.ErrorIs(t, err, boom)
	})
}

func TestScreenshots(t *testing.T) {
	dir := t.TempDir()
	shots := browser.NewScreenshots(dir)
	page := browsertest.NewPage()

	path, err := shots.Capture(context.Background(), page, "Student Feedback_error")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "student_feedback_error_"))
	assert.True(t, strings.HasSuffix(path, ".png"))
	assert.Equal(t, []string{path}, page.Screenshots())
}

func TestScreenshotsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := browsertest.NewPage()
	_, err := browser.NewScreenshots(t.TempDir()).Capture(ctx, page, "late")
	require.NoError(t, err, "capture runs detached from the cancelled context")
	assert.Len(t, page.Screenshots(), 1)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_desk", browser.SanitizeName("My Desk"))
	assert.Equal(t, "true_false", browser.SanitizeName("True/False"))
	assert.Equal(t, "screenshot", browser.SanitizeName("  "))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, browser.Sleep(context.Background(), 0))
	assert.NoError(t, browser.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, browser.Sleep(ctx, time.Hour), context.Canceled)
}
