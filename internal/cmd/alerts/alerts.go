// Package alerts provides a structured system for status notifications, such
// as the closing verdict of a reconciliation run.
package alerts

import (
	"fmt"
	"time"

	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Alert represents a system status notification.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewError creates a new error alert.
func NewError(message string) *Alert {
	return New(LevelError, message)
}

// NewWarning creates a new warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// NewInfo creates a new info alert.
func NewInfo(message string) *Alert {
	return New(LevelInfo, message)
}

// NewSuccess creates a new success alert.
func NewSuccess(message string) *Alert {
	return New(LevelSuccess, message)
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds additional context details to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns a string representation of the alert.
func (a *Alert) String() string {
	message := fmt.Sprintf("%s %s", a.Level.Icon(), a.Message)
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}

// FromResult summarizes a finished run: an error for a fatal abort, a warning
// for per-SKU failures or an exhausted budget, success otherwise.
func FromResult(result *pkgsync.Result) *Alert {
	total := result.Totals()

	switch {
	case result.Fatal != nil:
		return NewError(fmt.Sprintf("Run aborted (%s)", result.Fatal.Kind)).
			WithDetails(result.Fatal.Message, fmt.Sprintf("exit code %d", result.ExitCode()))

	case result.Truncated:
		return NewWarning("Run budget exhausted before the plan finished").
			WithDetails(fmt.Sprintf("%d operations not attempted", total.NotAttempted))

	case total.Failed > 0:
		alert := NewWarning(fmt.Sprintf("Run finished with %d failed operations", total.Failed))
		for _, f := range result.Failures {
			alert.WithDetails(fmt.Sprintf("%s %s: %s", f.Op, f.SKU, f.Message))
		}
		return alert

	case !result.HasChanges():
		return NewSuccess("Storefront already in sync")
	}

	if result.DryRun {
		return NewInfo(fmt.Sprintf("Dry run planned %d operations", total.Planned))
	}
	return NewSuccess(fmt.Sprintf("Applied %d operations", total.Succeeded))
}
