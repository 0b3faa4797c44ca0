package logview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

const failureLine = `{"level":"ERROR","timestamp":"2025-03-03T09:30:01.250Z","logger":"seeqlo-runner.StudentCurrency","message":"Failed to click check answer","activity":"Currency","step":"check_answer","status":"failure","error_message":"context deadline exceeded","traceback":"main.run\n\tmain.go:1"}`

func TestParse(t *testing.T) {
	rec, err := Parse(failureLine)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", rec.Level)
	assert.Equal(t, "Currency", rec.Activity)
	assert.Equal(t, "check_answer", rec.Step)
	assert.Equal(t, "failure", rec.Status)
	assert.Equal(t, "context deadline exceeded", rec.ErrorMessage)
	assert.True(t, strings.HasPrefix(rec.Traceback, "main.run"))
}

func TestParse_NotRecords(t *testing.T) {
	for _, line := range []string{"", "   ", "panic: boom", `{"unrelated":true}`, `{"level":`} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrNotRecord, line)
	}
}

func TestFormat(t *testing.T) {
	rec, err := Parse(failureLine)
	require.NoError(t, err)

	assert.Equal(t,
		"09:30:01.250 ERROR seeqlo-runner.StudentCurrency [Currency/check_answer] failure: Failed to click check answer (context deadline exceeded)",
		Format(rec, false))

	colored := Format(rec, true)
	assert.Contains(t, colored, observability.ColorCode("red")+"ERROR"+observability.ColorReset)
}

func TestFormat_MinimalRecord(t *testing.T) {
	got := Format(Record{Timestamp: "not a time", Level: "info", Message: "Server listening"}, false)
	assert.Equal(t, "not a time INFO  Server listening", got)
}

func TestFormatLine_PassesThroughGarbage(t *testing.T) {
	assert.Equal(t, "plain text", FormatLine("plain text", true))
}

// Records written by the file core of the logger must round-trip.
func TestParse_LoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.New(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "seeqlo-runner"}, zapcore.AddSync(&buf))
	logger.Named("Main").Warn("--- Starting Teacher Tabs Automation ---", observability.Event("Main", "", observability.StatusStarted)...)

	rec, err := Parse(buf.String())
	require.NoError(t, err)
	assert.Equal(t, "WARN", rec.Level)
	assert.Equal(t, "seeqlo-runner.Main", rec.Logger)
	assert.Equal(t, "Main", rec.Activity)
	assert.Equal(t, observability.StatusStarted, rec.Status)
}
