// Package activities holds the automation flows run against the learning
// application: login, navigation, one flow per activity and the teacher and
// student assignment flows.
package activities

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
)

// Role selects the credentials and login form a script uses.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Standard waits for elements to appear. They are not scaled by pace.
const (
	shortWait    = 10 * time.Second
	redirectWait = 15 * time.Second
	longWait     = 20 * time.Second
	pollEvery    = 250 * time.Millisecond
)

// pauseBeforeClick lets scroll animations settle. It is scaled by pace.
const pauseBeforeClick = 500 * time.Millisecond

// Env is everything a flow needs to drive one page.
type Env struct {
	Page    browser.Page
	Journal *Journal
	App     config.AppConfig
	Shots   *browser.Screenshots
	Rand    *rand.Rand
	Now     func() time.Time
}

// NewEnv fills the clock and random source with production defaults.
func NewEnv(page browser.Page, journal *Journal, app config.AppConfig, shots *browser.Screenshots) *Env {
	return &Env{
		Page:    page,
		Journal: journal,
		App:     app,
		Shots:   shots,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:     time.Now,
	}
}

// Pause sleeps for d scaled by the configured pace. A pace of zero turns
// every fixed pause off.
func (e *Env) Pause(ctx context.Context, d time.Duration) error {
	scaled := time.Duration(float64(d) * e.App.Pace)
	if scaled <= 0 {
		return ctx.Err()
	}
	return e.Page.Sleep(ctx, scaled)
}

// Credentials returns the login identity for role.
func (e *Env) Credentials(role Role) config.Credentials {
	if role == RoleTeacher {
		return e.App.Teacher
	}
	return e.App.Student
}

// rounds is the upper bound on loops that repeat until the page says stop.
func (e *Env) rounds() int {
	if e.App.MaxRounds > 0 {
		return e.App.MaxRounds
	}
	return 50
}

// screenshot captures the page, logging rather than returning any failure.
func (e *Env) screenshot(ctx context.Context, t *Tracker, name string) {
	if e.Shots == nil {
		return
	}
	path, err := e.Shots.Capture(ctx, e.Page, name)
	if err != nil {
		t.Warn("screenshot", "screenshot_failed", fmt.Sprintf("Could not save screenshot %s: %v", name, err))
		return
	}
	t.Step("screenshot", "Saved screenshot to "+path)
}

// poll calls cond every pollEvery until it reports true or timeout worth of
// intervals have passed. The interval sleeps go through the page so tests
// observe them without waiting.
func (e *Env) poll(ctx context.Context, timeout time.Duration, cond func() (bool, error)) error {
	attempts := int(timeout / pollEvery)
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := cond()
		if ok {
			return nil
		}
		lastErr = err
		if err := e.Page.Sleep(ctx, pollEvery); err != nil {
			return err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("condition not met within %v: %w", timeout, lastErr)
	}
	return fmt.Errorf("condition not met within %v", timeout)
}
