package executor

import (
	"golang.org/x/time/rate"

	"github.com/agentstation/storesync/pkg/sync"
)

// Option is a functional option for configuring an Executor.
type Option func(*executor)

// Observer receives every terminal outcome as soon as it is recorded.
type Observer func(sync.Outcome)

// WithMaxAttempts sets the number of tries per operation, first call included.
func WithMaxAttempts(n int) Option {
	return func(e *executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBackoff sets the retry backoff.
func WithBackoff(b Backoff) Option {
	return func(e *executor) {
		e.backoff = b
	}
}

// WithRateLimit paces storefront calls to rps requests per second. A
// non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *executor) {
		limit := rate.Limit(rps)
		if rps <= 0 {
			limit = rate.Inf
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLimiter uses an existing limiter, shared with other callers of the
// same storefront.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *executor) {
		if l != nil {
			e.limiter = l
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to observe delays
// without sleeping.
func WithSleep(fn SleepFunc) Option {
	return func(e *executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithObserver adds an outcome observer.
func WithObserver(fn Observer) Option {
	return func(e *executor) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}
