// Package logview decodes records of the shared log file and renders them
// for a terminal.
package logview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotRecord is returned for lines that are not JSON log records.
var ErrNotRecord = errors.New("not a log record")

// Record is one line of the shared log file.
type Record struct {
	Timestamp    string `json:"timestamp"`
	Level        string `json:"level"`
	Logger       string `json:"logger"`
	Message      string `json:"message"`
	Activity     string `json:"activity,omitempty"`
	Step         string `json:"step,omitempty"`
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Traceback    string `json:"traceback,omitempty"`
}

// Parse decodes one line of the log file.
func Parse(line string) (Record, error) {
	var rec Record
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return rec, ErrNotRecord
	}
	if err := json.UnmarshalFromString(line, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrNotRecord, err)
	}
	if rec.Message == "" && rec.Level == "" {
		return rec, ErrNotRecord
	}
	return rec, nil
}

var levelColors = map[string]string{
	"DEBUG": "magenta",
	"INFO":  "blue",
	"WARN":  "yellow",
	"ERROR": "red",
	"FATAL": "red",
}

// Format renders rec as a single line:
//
//	15:04:05.000 LEVEL logger [activity/step] status: message (error)
func Format(rec Record, color bool) string {
	var b strings.Builder

	b.WriteString(clock(rec.Timestamp))
	b.WriteByte(' ')

	level := fmt.Sprintf("%-5s", strings.ToUpper(rec.Level))
	if code := observability.ColorCode(levelColors[strings.ToUpper(rec.Level)]); color && code != "" {
		level = code + level + observability.ColorReset
	}
	b.WriteString(level)

	if rec.Logger != "" {
		b.WriteByte(' ')
		b.WriteString(rec.Logger)
	}

	if rec.Activity != "" {
		b.WriteString(" [")
		b.WriteString(rec.Activity)
		if rec.Step != "" {
			b.WriteByte('/')
			b.WriteString(rec.Step)
		}
		b.WriteByte(']')
	}

	b.WriteByte(' ')
	if rec.Status != "" {
		b.WriteString(rec.Status)
		b.WriteString(": ")
	}
	b.WriteString(rec.Message)

	if rec.ErrorMessage != "" {
		b.WriteString(" (")
		b.WriteString(rec.ErrorMessage)
		b.WriteByte(')')
	}
	return b.String()
}

// FormatLine parses and formats line, passing anything that is not a
// record through unchanged.
func FormatLine(line string, color bool) string {
	rec, err := Parse(line)
	if err != nil {
		return line
	}
	return Format(rec, color)
}

// clock shortens an ISO-8601 timestamp to its time of day.
func clock(ts string) string {
	t, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05.000")
}
