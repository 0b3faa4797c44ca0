// internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/seeqlo-runner/internal/config"
)

var (
	// globalProcessSemaphore limits the number of concurrent browser processes across all tests.
	globalProcessSemaphore     *semaphore.Weighted
	globalProcessSemaphoreOnce sync.Once
)

const (
	maxTestConcurrency        = 2
	defaultBrowserTestTimeout = 120 * time.Second
	semaphoreAcquireTimeout   = 10 * time.Second
)

func getGlobalProcessSemaphore() *semaphore.Weighted {
	globalProcessSemaphoreOnce.Do(func() {
		globalProcessSemaphore = semaphore.NewWeighted(maxTestConcurrency)
	})
	return globalProcessSemaphore
}

// chromeBinary finds a local Chrome, or returns "" when none is installed.
func chromeBinary() string {
	if p := os.Getenv("SEEQLO_BROWSER_BINARY_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

const fixturePage = `<!DOCTYPE html>
<html><body>
<h1 id="title">Fixture</h1>
<button id="inc" onclick="document.getElementById('count').textContent = String(Number(document.getElementById('count').textContent) + 1)">Add</button>
<span id="count">0</span>
<button id="covered" onclick="this.dataset.clicked = 'yes'" >Covered</button>
<input id="name" type="text" value="prefilled">
<select id="grade"><option value="">Pick</option><option value="6">Grade 6</option><option value="7">Grade 7</option></select>
<p class="item">one</p><p class="item">two</p><p class="item">three</p>
<p id="hidden" style="display:none">secret</p>
<div id="src" style="width:60px;height:30px;background:#c00">drag</div>
<div id="dst" style="width:120px;height:60px;margin-top:40px;background:#0c0">drop</div>
<div style="height:3000px"></div>
<script>
  window.dragLog = [];
  document.addEventListener('mousedown', e => window.dragLog.push('down:' + e.target.id));
  document.addEventListener('mouseup', e => window.dragLog.push('up:' + e.target.id));
</script>
</body></html>`

// testFixture is a live headless session pointed at the fixture page.
type testFixture struct {
	Session *Session
	URL     string
	Ctx     context.Context
}

// newTestFixture starts Chrome and the fixture server. The test is skipped
// in -short mode or when no browser is installed.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}
	binary := chromeBinary()
	if binary == "" {
		t.Skip("no Chrome or Chromium binary found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultBrowserTestTimeout)
	t.Cleanup(cancel)

	acquireCtx, acquireCancel := context.WithTimeout(ctx, semaphoreAcquireTimeout)
	defer acquireCancel()
	sem := getGlobalProcessSemaphore()
	require.NoError(t, sem.Acquire(acquireCtx, 1), "timed out waiting for a browser slot")
	t.Cleanup(func() { sem.Release(1) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixturePage))
	}))
	t.Cleanup(srv.Close)

	cfg := config.NewDefaultConfig().Browser()
	cfg.Headless = true
	cfg.BinaryPath = binary
	cfg.DefaultTimeout = 5 * time.Second

	s, err := NewSession(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return &testFixture{Session: s, URL: srv.URL, Ctx: ctx}
}
