// Package application defines the application context that commands depend
// on, so command packages never import the concrete app.
package application

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/pkg/errors"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Application is implemented by the storesync app. Commands accept it rather
// than the concrete App type so they can be tested with a Mock.
type Application interface {
	// Client returns the configured client. Without options the same
	// instance is returned on every call; with options a new client is
	// built from the configuration plus the given options.
	Client(opts ...storesync.Option) (storesync.Client, error)

	// Logger returns the configured logger.
	Logger() *zerolog.Logger

	// OutputFormat returns the requested output format (table, wide, json, yaml),
	// or "" to auto-detect.
	OutputFormat() string

	// ScheduleInterval returns the configured interval between scheduled runs.
	ScheduleInterval() time.Duration

	// MetricsAddr returns the configured metrics listen address, "" when disabled.
	MetricsAddr() string

	// Version information
	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}

// ExitError carries a process exit status out of a command. The command has
// already reported the outcome, so Err may be nil.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeOf maps an error raised before a run started, such as a failure to
// build the client, to an exit status. Invalid settings are configuration
// errors.
func ExitCodeOf(err error) int {
	var exit *ExitError
	switch {
	case err == nil:
		return pkgsync.ExitOK
	case errors.As(err, &exit):
		return exit.Code
	case errors.IsConfigError(err), errors.IsValidationError(err):
		return pkgsync.ExitConfig
	case errors.IsUnauthorized(err):
		return pkgsync.ExitAuth
	}
	return pkgsync.ExitError
}
