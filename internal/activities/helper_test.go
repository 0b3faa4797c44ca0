package activities

import (
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/browser/browsertest"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
)

var fixedNow = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

// testApp returns application settings with pauses disabled and short loops.
func testApp() config.AppConfig {
	app := config.NewDefaultConfig().App()
	app.Pace = 0
	app.MaxRounds = 5
	app.Student = config.Credentials{Email: "student@example.com", Password: "s3cret"}
	app.Teacher = config.Credentials{Email: "teacher@example.com", Password: "t3acher", WelcomeText: "Welcome back"}
	return app
}

// newTestEnv wires a fake page into an Env whose log records are observed.
func newTestEnv(t *testing.T, page *browsertest.Page) (*Env, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	env := &Env{
		Page:    page,
		Journal: NewJournal(zap.New(core)),
		App:     testApp(),
		Shots:   browser.NewScreenshots(t.TempDir()),
		Rand:    rand.New(rand.NewSource(1)),
		Now:     func() time.Time { return fixedNow },
	}
	return env, logs
}

// statuses returns the status field of every record logged for activity.
func statuses(logs *observer.ObservedLogs, activity string) []string {
	var out []string
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		if fields["activity"] != activity {
			continue
		}
		if s, ok := fields["status"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// errorEntries returns every record logged at error level.
func errorEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.ErrorLevel).All()
}
