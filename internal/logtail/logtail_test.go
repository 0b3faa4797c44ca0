package logtail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 5 * time.Second

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		require.True(t, ok, "channel closed early")
		return line
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a log line")
		return ""
	}
}

func TestFollow_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automation_logs.json")
	appendLines(t, path, `{"message":"one"}`, `{"message":"two"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines, err := Follow(ctx, path, true, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, `{"message":"one"}`, next(t, lines))
	assert.Equal(t, `{"message":"two"}`, next(t, lines))

	appendLines(t, path, `{"message":"three"}`)
	assert.Equal(t, `{"message":"three"}`, next(t, lines))
}

func TestFollow_ClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automation_logs.json")
	appendLines(t, path, "old")

	ctx, cancel := context.WithCancel(context.Background())
	lines, err := Follow(ctx, path, false, zap.NewNop())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-lines:
		assert.False(t, ok, "old content is skipped and the channel closes")
	case <-time.After(waitFor):
		t.Fatal("channel was not closed after cancel")
	}
}

func TestFollow_WaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines, err := Follow(ctx, path, true, zap.NewNop())
	require.NoError(t, err)

	appendLines(t, path, "created")
	assert.Equal(t, "created", next(t, lines))
}

func TestReadAll(t *testing.T) {
	dir := t.TempDir()

	lines, err := ReadAll(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, lines)

	path := filepath.Join(dir, "logs.json")
	appendLines(t, path, "a", "b")
	lines, err = ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestTruncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs.json")
	appendLines(t, path, "a", "b")

	require.NoError(t, Truncate(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	created := filepath.Join(dir, "new.json")
	require.NoError(t, Truncate(created))
	_, err = os.Stat(created)
	assert.NoError(t, err)

	assert.Error(t, Truncate(filepath.Join(dir, "nope", "x.json")))
}
