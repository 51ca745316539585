package executor

import (
	"context"
	"time"

	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/sync"
)

// Class is how the retry policy treats the outcome of one attempt.
type Class int

// Attempt classes.
const (
	ClassSuccess   Class = iota // the call succeeded
	ClassRetryable              // rate limited or transient, worth another attempt
	ClassPermanent              // will fail the same way again
	ClassAbort                  // the whole run cannot make progress
)

// String returns the class label.
func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassRetryable:
		return "retryable"
	case ClassPermanent:
		return "permanent"
	case ClassAbort:
		return "abort"
	}
	return "unknown"
}

// ClassOf maps the error of one attempt onto a Class.
func ClassOf(err error) Class {
	if err == nil {
		return ClassSuccess
	}
	kind := errors.Classify(err)
	switch {
	case kind == errors.KindAuth:
		return ClassAbort
	case kind.Retryable():
		return ClassRetryable
	}
	return ClassPermanent
}

// Next is the per-operation state machine: Pending → Retrying(n) →
// Succeeded | Failed. attempt is the 1-based number of the attempt that just
// finished with class.
func Next(attempt int, class Class, maxAttempts int) sync.State {
	switch class {
	case ClassSuccess:
		return sync.StateSucceeded
	case ClassRetryable:
		if attempt < maxAttempts {
			return sync.StateRetrying
		}
	}
	return sync.StateFailed
}

// Backoff computes the wait before a retry.
type Backoff struct {
	Base time.Duration
	Max  time.Duration // zero means uncapped
}

// Delay returns Base × 2^(retry−1) capped at Max, raised to hint when the
// server asked for a longer wait.
func (b Backoff) Delay(retry int, hint time.Duration) time.Duration {
	d := b.Base
	for i := 1; i < retry && (b.Max <= 0 || d < b.Max); i++ {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if hint > d {
		d = hint
	}
	return d
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
