package activities

import (
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Phase is the outcome of one activity within a run.
type Phase struct {
	Activity string
	Started  time.Time
	Duration time.Duration
	Status   string
	Steps    []string
	Err      error
}

// Failed reports whether the phase ended in failure.
func (p Phase) Failed() bool { return p.Err != nil }

// Journal logs structured step records and keeps the phases of a run.
type Journal struct {
	mu     sync.Mutex
	logger *zap.Logger
	phases []*Phase
	now    func() time.Time
}

func NewJournal(logger *zap.Logger) *Journal {
	return &Journal{logger: logger, now: time.Now}
}

func (j *Journal) Logger() *zap.Logger { return j.logger }

// Begin opens a phase for activity and logs its start.
func (j *Journal) Begin(activity string) *Tracker {
	p := &Phase{Activity: activity, Started: j.now(), Status: observability.StatusStarted}

	j.mu.Lock()
	j.phases = append(j.phases, p)
	j.mu.Unlock()

	t := &Tracker{j: j, phase: p}
	t.log(zap.InfoLevel, "", observability.StatusStarted, "Starting "+activity)
	return t
}

// Phases returns a snapshot of every phase begun so far.
func (j *Journal) Phases() []Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Phase, len(j.phases))
	for i, p := range j.phases {
		out[i] = *p
		out[i].Steps = append([]string(nil), p.Steps...)
	}
	return out
}

// Tracker logs the steps of one phase.
type Tracker struct {
	j     *Journal
	phase *Phase
}

func (t *Tracker) Activity() string { return t.phase.Activity }

func (t *Tracker) log(level zapcore.Level, step, status, msg string, extra ...zap.Field) {
	fields := append(observability.Event(t.phase.Activity, step, status), extra...)
	if ce := t.j.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Step logs progress within the phase.
func (t *Tracker) Step(step, msg string, fields ...zap.Field) {
	t.j.mu.Lock()
	t.phase.Steps = append(t.phase.Steps, msg)
	t.j.mu.Unlock()
	t.log(zap.InfoLevel, step, observability.StatusInProgress, msg, fields...)
}

// Warn logs a recoverable problem with its own status.
func (t *Tracker) Warn(step, status, msg string, fields ...zap.Field) {
	t.j.mu.Lock()
	t.phase.Steps = append(t.phase.Steps, msg)
	t.j.mu.Unlock()
	t.log(zap.WarnLevel, step, status, msg, fields...)
}

// Fail logs err with a traceback, closes the phase as failed and returns
// err prefixed with the activity name. Only the first failure is kept.
func (t *Tracker) Fail(step string, err error, msg string) error {
	t.j.mu.Lock()
	if t.phase.Err == nil {
		t.phase.Err = err
		t.phase.Status = observability.StatusFailure
		t.phase.Duration = t.j.now().Sub(t.phase.Started)
	}
	t.phase.Steps = append(t.phase.Steps, msg)
	t.j.mu.Unlock()

	t.log(zap.ErrorLevel, step, observability.StatusFailure, msg, observability.ErrorMessage(err))
	return fmt.Errorf("%s: %s: %w", t.phase.Activity, msg, err)
}

// Done closes the phase as successful.
func (t *Tracker) Done(msg string) {
	t.finish(observability.StatusSuccess)
	t.log(zap.InfoLevel, "", observability.StatusSuccess, msg)
}

// Finish closes the phase with a custom terminal status, e.g. completed.
func (t *Tracker) Finish(status, msg string) {
	t.finish(status)
	t.log(zap.WarnLevel, "", status, msg)
}

// Abandon closes the phase with status and err at warning level, without a
// traceback, and returns err prefixed with the activity name.
func (t *Tracker) Abandon(status string, err error, msg string) error {
	t.j.mu.Lock()
	if t.phase.Err == nil {
		t.phase.Err = err
		t.phase.Status = status
		t.phase.Duration = t.j.now().Sub(t.phase.Started)
	}
	t.phase.Steps = append(t.phase.Steps, msg)
	t.j.mu.Unlock()

	t.log(zap.WarnLevel, "", status, msg, observability.ErrorMessage(err))
	return fmt.Errorf("%s: %w", t.phase.Activity, err)
}

func (t *Tracker) finish(status string) {
	t.j.mu.Lock()
	defer t.j.mu.Unlock()
	if t.phase.Err != nil {
		return
	}
	t.phase.Status = status
	t.phase.Duration = t.j.now().Sub(t.phase.Started)
}
