package storesync

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/executor"
	"github.com/agentstation/storesync/pkg/pricing"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the construction-time configuration of a Client.
type options struct {
	rule             pricing.Rule
	maxShrinkage     float64
	policy           differ.DiscontinuedPolicy
	ignoredFields    []string
	executor         []executor.Option
	runDefaults      []pkgsync.Option
	autoSyncEnabled  bool
	autoSyncInterval time.Duration
}

// defaults returns the default client options.
func defaults() *options {
	return &options{
		rule:             pricing.NewRule(decimal.Zero, decimal.Zero),
		maxShrinkage:     constants.DefaultMaxShrinkage,
		policy:           differ.DiscontinuedDelete,
		autoSyncEnabled:  false,
		autoSyncInterval: constants.DefaultScheduleInterval,
		runDefaults:      []pkgsync.Option{pkgsync.WithTimeout(constants.RunTimeout)},
	}
}

// apply applies the given options in order and stops at the first error.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithPricingRule sets the markup rule. The rule is validated at the start
// of every run so that a bad rule is reported like any other fatal error.
func WithPricingRule(rule pricing.Rule) Option {
	return func(o *options) error {
		o.rule = rule
		return nil
	}
}

// WithMaxShrinkage sets the largest fraction of the current catalog a run may
// remove. 1 disables the guard.
func WithMaxShrinkage(fraction float64) Option {
	return func(o *options) error {
		if fraction < 0 || fraction > 1 {
			return &errors.ValidationError{
				Field:   "maxShrinkage",
				Value:   fraction,
				Message: "must be between 0 and 1",
			}
		}
		o.maxShrinkage = fraction
		return nil
	}
}

// WithDiscontinuedPolicy sets what happens to listed products whose supplier
// entry is inactive.
func WithDiscontinuedPolicy(policy differ.DiscontinuedPolicy) Option {
	return func(o *options) error {
		if !policy.IsValid() {
			return &errors.ValidationError{
				Field:   "discontinuedPolicy",
				Value:   policy,
				Message: fmt.Sprintf("must be %q or %q", differ.DiscontinuedDelete, differ.DiscontinuedDeactivate),
			}
		}
		o.policy = policy
		return nil
	}
}

// WithIgnoredFields excludes product fields from change detection.
func WithIgnoredFields(fields ...string) Option {
	return func(o *options) error {
		o.ignoredFields = append(o.ignoredFields, fields...)
		return nil
	}
}

// WithExecutorOptions configures retry and pacing of storefront calls.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(o *options) error {
		o.executor = append(o.executor, opts...)
		return nil
	}
}

// WithRunDefaults sets run options applied before the options of each call.
func WithRunDefaults(opts ...pkgsync.Option) Option {
	return func(o *options) error {
		o.runDefaults = append(o.runDefaults, opts...)
		return nil
	}
}

// WithAutoSync configures whether New starts the interval loop.
func WithAutoSync(enabled bool) Option {
	return func(o *options) error {
		o.autoSyncEnabled = enabled
		return nil
	}
}

// WithAutoSyncInterval configures how often the interval loop runs.
func WithAutoSyncInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoSyncInterval = interval
		return nil
	}
}
