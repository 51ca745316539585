package errors

import (
	"context"
	"errors"
	"net"
)

// Kind is the coarse class of a failure, used to pick a retry decision and
// to label failures in run reports.
type Kind string

// Failure kinds.
const (
	KindNone          Kind = ""
	KindConfiguration Kind = "configuration"
	KindFetch         Kind = "fetch"
	KindAuth          Kind = "auth"
	KindRateLimited   Kind = "rate_limited"
	KindTransient     Kind = "transient"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindGuardTripped  Kind = "guard_tripped"
	KindTimeout       Kind = "timeout"
	KindCanceled      Kind = "canceled"
	KindUnknown       Kind = "unknown"
)

// Classify maps err onto a Kind. Order matters: an authentication failure
// that surfaced while fetching a listing is reported as auth.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrGuardTripped):
		return KindGuardTripped
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}

	return KindUnknown
}

// Retryable reports whether an operation failing with this kind may be retried.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Fatal reports whether a failure of this kind aborts the whole run.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfiguration, KindFetch, KindAuth, KindGuardTripped:
		return true
	}
	return false
}

// String returns the kind label.
func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}
