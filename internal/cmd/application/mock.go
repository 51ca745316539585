package application

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storesync"
)

// Compile-time interface check.
var _ Application = (*Mock)(nil)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	client, _ := storesync.New(memory.NewSupplier(records...), memory.New())
//	mock := &application.Mock{
//	    ClientFunc: func(...storesync.Option) (storesync.Client, error) {
//	        return client, nil
//	    },
//	}
//	cmd := run.NewCommand(mock)
type Mock struct {
	ClientFunc           func(opts ...storesync.Option) (storesync.Client, error)
	LoggerFunc           func() *zerolog.Logger
	OutputFormatFunc     func() string
	ScheduleIntervalFunc func() time.Duration
	MetricsAddrFunc      func() string
	VersionFunc          func() string
	CommitFunc           func() string
	DateFunc             func() string
	BuiltByFunc          func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(opts ...storesync.Option) (storesync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// ScheduleInterval returns the interval using the mock function or one hour.
func (m *Mock) ScheduleInterval() time.Duration {
	if m.ScheduleIntervalFunc != nil {
		return m.ScheduleIntervalFunc()
	}
	return time.Hour
}

// MetricsAddr returns the metrics address using the mock function or "".
func (m *Mock) MetricsAddr() string {
	if m.MetricsAddrFunc != nil {
		return m.MetricsAddrFunc()
	}
	return ""
}

// Version returns the version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns the commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
