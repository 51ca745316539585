// Package sync provides the options and the result report of one
// reconciliation run.
package sync

import (
	"time"

	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
)

// Options controls one run of Client.Run or Client.Plan.
type Options struct {
	DryRun   bool                 // Plan and report without touching the storefront
	Timeout  time.Duration        // Budget for the entire run, zero means no budget
	Strategy differ.ApplyStrategy // Which operation kinds to apply
	Limit    int                  // Only reconcile SKUs of the first Limit supplier records, zero means all
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:   false,
		Timeout:  0,
		Strategy: differ.ApplyAll,
		Limit:    0,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if !s.Strategy.IsValid() {
		return &errors.ValidationError{
			Field:   "Strategy",
			Value:   s.Strategy,
			Message: "unknown apply strategy",
		}
	}
	if s.Limit < 0 {
		return &errors.ValidationError{
			Field:   "Limit",
			Value:   s.Limit,
			Message: "limit must be non-negative",
		}
	}
	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the run budget.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithStrategy configures which operation kinds are applied.
func WithStrategy(strategy differ.ApplyStrategy) Option {
	return func(opts *Options) {
		opts.Strategy = strategy
	}
}

// WithLimit restricts the run to the SKUs of the first n supplier records.
func WithLimit(n int) Option {
	return func(opts *Options) {
		opts.Limit = n
	}
}
