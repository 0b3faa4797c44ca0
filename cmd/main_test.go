// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

// resetForTest isolates a test from the machine's environment and from the
// logger left behind by previous tests. It returns the log file in use.
func resetForTest(t *testing.T) string {
	t.Helper()

	logFile := filepath.Join(t.TempDir(), "automation_logs.json")
	t.Setenv("SEEQLO_LOGGER_LOG_FILE", logFile)
	t.Setenv("SEEQLO_LOGGER_LEVEL", "error")
	t.Setenv("SEEQLO_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEEQLO_SERVER_ADDR", "")

	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	return logFile
}

// executeCommand runs a fresh command tree and captures its output.
func executeCommand(t *testing.T, provider storeProvider, args ...string) (string, error) {
	t.Helper()
	if provider == nil {
		provider = defaultStoreProvider{}
	}
	root := buildRootCmd(provider)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
