package observability

import "go.uber.org/zap"

// Keys of the event fields every automation record carries.
const (
	KeyActivity     = "activity"
	KeyStep         = "step"
	KeyStatus       = "status"
	KeyErrorMessage = "error_message"
)

// Common status values.
const (
	StatusStarted       = "started"
	StatusInProgress    = "in_progress"
	StatusSuccess       = "success"
	StatusFailure       = "failure"
	StatusNotFound      = "not_found"
	StatusSkipped       = "skipped"
	StatusScriptStopped = "script_stopped"
)

// StepClosing is the step of the record written just before the browser closes.
const StepClosing = "closing_browser"

func Activity(name string) zap.Field { return zap.String(KeyActivity, name) }

func Step(name string) zap.Field { return zap.String(KeyStep, name) }

func Status(status string) zap.Field { return zap.String(KeyStatus, status) }

// ErrorMessage records err's text under error_message. A nil error yields
// a skipped field.
func ErrorMessage(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String(KeyErrorMessage, err.Error())
}

// Event bundles the activity, step and status fields of one record.
func Event(activity, step, status string) []zap.Field {
	fields := []zap.Field{Activity(activity)}
	if step != "" {
		fields = append(fields, Step(step))
	}
	if status != "" {
		fields = append(fields, Status(status))
	}
	return fields
}
