// File: cmd/seeqlo-runner/main_test.go
package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestHandlePanic_WritesPanicLog(t *testing.T) {
	defer resetMocks()

	var written string
	var path string
	osWriteFile = func(name string, data []byte, _ os.FileMode) error {
		path = name
		written = string(data)
		return nil
	}
	exitCode := -1
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("browser went away")
	}()

	assert.Equal(t, panicLogFile, path)
	assert.Contains(t, written, "panic: browser went away")
	assert.Contains(t, written, "goroutine")
	assert.Equal(t, 2, exitCode)
}

func TestHandlePanic_WriteFailure(t *testing.T) {
	defer resetMocks()

	osWriteFile = func(string, []byte, os.FileMode) error { return os.ErrPermission }
	exitCode := -1
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, 1, exitCode)
}

func TestHandlePanic_NoPanic(t *testing.T) {
	defer resetMocks()

	called := false
	osExit = func(int) { called = true }

	func() {
		defer handlePanic()
	}()

	require.False(t, called)
}
