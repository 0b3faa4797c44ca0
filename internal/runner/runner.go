// Package runner executes one registered automation script end to end:
// browser session, login, the script's flow, failure screenshot, run
// history and report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
	"github.com/xkilldash9x/seeqlo-runner/internal/reporting"
	"github.com/xkilldash9x/seeqlo-runner/internal/store"
)

const activityMain = "Main"

var (
	// ErrUnknownScript is returned for keys that are not registered.
	ErrUnknownScript = errors.New("unknown script")
	// ErrMissingCredentials is returned when the script's role has no login.
	ErrMissingCredentials = activities.ErrMissingCredentials
)

// Recorder persists run history. *store.Store satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run store.Run) error
	FinishRun(ctx context.Context, id uuid.UUID, runErr error, finishedAt time.Time) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder stores the start and outcome of every run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithReport writes a report of the run's phases to path. The format
// follows the extension: .json for JSON, anything else for JUnit XML.
func WithReport(path string) Option {
	return func(r *Runner) { r.reportPath = path }
}

// WithLookup replaces the script registry.
func WithLookup(lookup func(key string) (activities.Script, bool)) Option {
	return func(r *Runner) { r.lookup = lookup }
}

// Runner executes scripts one at a time.
type Runner struct {
	cfg        config.Interface
	factory    browser.Factory
	logger     *zap.Logger
	recorder   Recorder
	reportPath string
	lookup     func(key string) (activities.Script, bool)
	now        func() time.Time
}

func New(cfg config.Interface, factory browser.Factory, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		lookup:  activities.Lookup,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the script registered under key and returns its error.
func (r *Runner) Run(ctx context.Context, key string) (err error) {
	script, ok := r.lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScript, key)
	}

	app := r.cfg.App()
	creds := app.Student
	if script.Role == activities.RoleTeacher {
		creds = app.Teacher
	}
	if !creds.Complete() {
		return fmt.Errorf("%s %w", script.Role, ErrMissingCredentials)
	}

	log := r.logger.Named(LoggerName(script.Name))
	journal := activities.NewJournal(log)
	started := r.now()
	runID := uuid.New()

	r.recordStart(ctx, log, store.Run{ID: runID, Script: key, PID: os.Getpid(), StartedAt: started})
	defer func() {
		r.recordFinish(ctx, log, runID, err)
		if reportErr := r.writeReport(script, key, started, journal.Phases()); reportErr != nil {
			log.Warn("Failed to write run report", zap.Error(reportErr), zap.String("path", r.reportPath))
			if err == nil {
				err = reportErr
			}
		}
	}()

	log.Info(fmt.Sprintf("--- Starting %s Automation ---", script.Name),
		observability.Event(activityMain, "", observability.StatusStarted)...)

	page, err := r.factory(ctx)
	if err != nil {
		log.Error("Could not start the browser",
			append(observability.Event(activityMain, "browser", observability.StatusScriptStopped),
				observability.ErrorMessage(err))...)
		return fmt.Errorf("failed to start browser: %w", err)
	}

	env := activities.NewEnv(page, journal, app, browser.NewScreenshots(app.ScreenshotDir))
	defer r.closePage(ctx, log, page, app.CloseDelay)

	err = activities.Login(ctx, env, script.Role)
	if err == nil {
		err = script.Run(ctx, env)
	}
	if err != nil {
		log.Error("Script stopped due to error",
			append(observability.Event(activityMain, "", observability.StatusScriptStopped),
				observability.ErrorMessage(err))...)
		if path, shotErr := env.Shots.Capture(ctx, page, key+"_error"); shotErr != nil {
			log.Warn("Could not save failure screenshot", zap.Error(shotErr))
		} else {
			log.Info("Saved failure screenshot to "+path, observability.Activity(activityMain))
		}
		return err
	}

	log.Info(fmt.Sprintf("--- %s Automation Finished ---", script.Name),
		observability.Event(activityMain, "", observability.StatusSuccess)...)
	return nil
}

// closePage keeps the browser open for delay so the final state stays
// visible, then closes it.
func (r *Runner) closePage(ctx context.Context, log *zap.Logger, page browser.Page, delay time.Duration) {
	if delay > 0 && ctx.Err() == nil {
		_ = page.Sleep(ctx, delay)
	}
	log.Info("Closing browser", observability.Event(activityMain, observability.StepClosing, "")...)
	if err := page.Close(); err != nil {
		log.Debug("Browser close reported an error", zap.Error(err))
	}
}

func (r *Runner) recordStart(ctx context.Context, log *zap.Logger, run store.Run) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.StartRun(ctx, run); err != nil {
		log.Warn("Failed to record run start", zap.Error(err))
	}
}

func (r *Runner) recordFinish(ctx context.Context, log *zap.Logger, id uuid.UUID, runErr error) {
	if r.recorder == nil {
		return
	}
	// The run may have been cancelled; its outcome is still worth keeping.
	recCtx, cancel := context.WithTimeout(browser.Detach(ctx), 5*time.Second)
	defer cancel()
	if err := r.recorder.FinishRun(recCtx, id, runErr, r.now()); err != nil {
		log.Warn("Failed to record run outcome", zap.Error(err))
	}
}

func (r *Runner) writeReport(script activities.Script, key string, started time.Time, phases []activities.Phase) error {
	if r.reportPath == "" {
		return nil
	}
	rep, err := reporting.New(reporting.FormatFromPath(r.reportPath), r.reportPath)
	if err != nil {
		return err
	}
	if err := rep.Write(reporting.FromPhases(script.Name, key, started, phases)); err != nil {
		_ = rep.Close()
		return err
	}
	return rep.Close()
}

// LoggerName turns a script name into a logger name, e.g. "Student
// Spelling Bee" becomes "StudentSpellingBee".
func LoggerName(name string) string {
	return strings.Join(strings.Fields(name), "")
}
