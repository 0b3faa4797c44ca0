package reporting

import (
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
)

// Case is one activity phase of a run.
type Case struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Steps    []string      `json:"steps,omitempty"`
	Failure  string        `json:"failure,omitempty"`
}

// Failed reports whether the phase ended with an error.
func (c Case) Failed() bool { return c.Failure != "" }

// Suite is one script run.
type Suite struct {
	Name    string    `json:"name"`
	Script  string    `json:"script"`
	Started time.Time `json:"started"`
	Cases   []Case    `json:"cases"`
}

// Failures counts the failed cases.
func (s Suite) Failures() int {
	n := 0
	for _, c := range s.Cases {
		if c.Failed() {
			n++
		}
	}
	return n
}

// Duration sums the case durations.
func (s Suite) Duration() time.Duration {
	var d time.Duration
	for _, c := range s.Cases {
		d += c.Duration
	}
	return d
}

// FromPhases builds the suite of a script run from its journal.
func FromPhases(name, script string, started time.Time, phases []activities.Phase) Suite {
	s := Suite{Name: name, Script: script, Started: started, Cases: make([]Case, 0, len(phases))}
	for _, p := range phases {
		c := Case{
			Name:     p.Activity,
			Status:   p.Status,
			Duration: p.Duration,
			Steps:    p.Steps,
		}
		if p.Err != nil {
			c.Failure = p.Err.Error()
		}
		s.Cases = append(s.Cases, c)
	}
	return s
}
