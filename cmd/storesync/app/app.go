// Package app provides the application context and dependency management
// for the storesync CLI. It centralizes configuration, logging and the
// lifecycle of the reconciliation client.
package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/pkg/errors"
)

// Compile-time interface check.
var _ application.Application = (*App)(nil)

// App represents the storesync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Client instances. client is the lazily built default; extra holds
	// clients built with custom options so Shutdown can stop them too.
	mu     sync.RWMutex
	client storesync.Client
	extra  []storesync.Client

	// collaborators overrides how supplier and storefront are built (tests)
	collaborators CollaboratorsFunc

	// out and errOut replace the command output streams when set
	out    io.Writer
	errOut io.Writer
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration, which can be
// replaced using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:       version,
		commit:        commit,
		date:          date,
		builtBy:       builtBy,
		collaborators: BuildCollaborators,
	}

	// Load configuration
	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the requested output format.
func (a *App) OutputFormat() string {
	return a.config.Output
}

// ScheduleInterval returns the configured interval between scheduled runs.
func (a *App) ScheduleInterval() time.Duration {
	return a.config.ScheduleInterval
}

// MetricsAddr returns the configured metrics listen address.
func (a *App) MetricsAddr() string {
	return a.config.MetricsAddr
}

// Client returns the reconciliation client. Without options the default
// client is created lazily and shared; with options a new client is built
// from the configuration plus opts.
func (a *App) Client(opts ...storesync.Option) (storesync.Client, error) {
	if len(opts) > 0 {
		c, err := a.newClient(opts...)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.extra = append(a.extra, c)
		a.mu.Unlock()
		return c, nil
	}

	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := a.newClient()
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// newClient builds a client from the configuration.
func (a *App) newClient(extra ...storesync.Option) (storesync.Client, error) {
	supplier, storefront, err := a.collaborators(a.config, a.logger)
	if err != nil {
		return nil, err
	}

	opts, err := clientOptions(a.config)
	if err != nil {
		return nil, err
	}

	c, err := storesync.New(supplier, storefront, append(opts, extra...)...)
	if err != nil {
		return nil, errors.NewConfigError("storesync", "cannot create client", err)
	}
	return c, nil
}

// Shutdown performs graceful shutdown of the application.
// It stops any running schedule and waits for in-flight runs.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.RLock()
	clients := append([]storesync.Client{}, a.extra...)
	if a.client != nil {
		clients = append(clients, a.client)
	}
	a.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range clients {
			if err := c.AutoSyncOff(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to stop schedule during shutdown")
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.NewTimeoutError("shutdown", "", "in-flight run did not stop in time")
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c storesync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithCollaborators replaces how the supplier and storefront are built.
func WithCollaborators(fn CollaboratorsFunc) Option {
	return func(a *App) error {
		if fn != nil {
			a.collaborators = fn
		}
		return nil
	}
}

// WithOutput redirects command output and alerts.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) error {
		a.out = out
		a.errOut = errOut
		return nil
	}
}
