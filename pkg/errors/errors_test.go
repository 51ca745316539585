package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pkgerrors "github.com/agentstation/storesync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "product",
			ID:       "gid-42",
		}
		assert.Equal(t, "product with ID gid-42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("product", "1")
		wrapped := fmt.Errorf("update: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("price", "-1", "must be positive")
		assert.Equal(t, "validation failed for field price: must be positive", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad payload"}
		assert.Equal(t, "validation failed: bad payload", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{429, pkgerrors.ErrRateLimited},
		{500, pkgerrors.ErrTransient},
		{503, pkgerrors.ErrTransient},
		{408, pkgerrors.ErrTransient},
		{401, pkgerrors.ErrUnauthorized},
		{403, pkgerrors.ErrUnauthorized},
		{404, pkgerrors.ErrNotFound},
		{400, pkgerrors.ErrInvalidInput},
		{422, pkgerrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := pkgerrors.NewAPIError("shopify", tt.status, "boom")
			assert.True(t, errors.Is(err, tt.target))
			assert.Contains(t, err.Error(), "shopify")
		})
	}

	t.Run("rate limit is not transient", func(t *testing.T) {
		err := pkgerrors.NewAPIError("shopify", 429, "slow down")
		assert.False(t, pkgerrors.IsTransient(err))
	})

	t.Run("retry after survives wrapping", func(t *testing.T) {
		err := &pkgerrors.APIError{Service: "shopify", StatusCode: 429, RetryAfter: 3 * time.Second}
		wrapped := fmt.Errorf("create A: %w", err)
		assert.Equal(t, 3*time.Second, pkgerrors.RetryAfter(wrapped))
		assert.Zero(t, pkgerrors.RetryAfter(errors.New("plain")))
	})
}

func TestFetchError(t *testing.T) {
	cause := pkgerrors.NewAPIError("promoopcion", 502, "bad gateway")
	err := pkgerrors.WrapFetch("supplier", cause)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsFetchError(err))
	assert.True(t, pkgerrors.IsTransient(err), "cause must stay reachable")
	assert.Contains(t, err.Error(), "supplier")
	assert.NoError(t, pkgerrors.WrapFetch("supplier", nil))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("pricing", "discount_rate must be in [0, 1)", nil)
	assert.Contains(t, err.Error(), "pricing")
	assert.True(t, pkgerrors.IsConfigError(err))
}

func TestGuardTrippedError(t *testing.T) {
	err := &pkgerrors.GuardTrippedError{Reason: "catalog shrinkage", Desired: 2, Current: 10, Threshold: 0.5}
	assert.True(t, pkgerrors.IsGuardTripped(err))
	assert.Contains(t, err.Error(), "desired 2")
	assert.Contains(t, err.Error(), "current 10")
}

func TestIOError(t *testing.T) {
	baseErr := errors.New("disk full")
	err := pkgerrors.WrapIO("read", "/data/feed.json", baseErr)
	ioErr, ok := err.(*pkgerrors.IOError)
	require.True(t, ok)
	assert.Equal(t, "read", ioErr.Operation)
	assert.Equal(t, baseErr, ioErr.Unwrap())
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pkgerrors.Kind
	}{
		{"nil", nil, pkgerrors.KindNone},
		{"config", pkgerrors.NewConfigError("pricing", "bad", nil), pkgerrors.KindConfiguration},
		{"fetch", pkgerrors.NewFetchError("supplier", "empty", nil), pkgerrors.KindFetch},
		{"auth during fetch", pkgerrors.WrapFetch("storefront", pkgerrors.NewAPIError("shopify", 401, "")), pkgerrors.KindAuth},
		{"rate limited", pkgerrors.NewAPIError("shopify", 429, ""), pkgerrors.KindRateLimited},
		{"server error", pkgerrors.NewAPIError("shopify", 502, ""), pkgerrors.KindTransient},
		{"network", pkgerrors.NewTransientError("create", errors.New("reset")), pkgerrors.KindTransient},
		{"net timeout", timeoutErr{}, pkgerrors.KindTransient},
		{"validation", pkgerrors.NewAPIError("shopify", 422, ""), pkgerrors.KindValidation},
		{"not found", pkgerrors.NewAPIError("shopify", 404, ""), pkgerrors.KindNotFound},
		{"guard", &pkgerrors.GuardTrippedError{}, pkgerrors.KindGuardTripped},
		{"deadline", context.DeadlineExceeded, pkgerrors.KindTimeout},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), pkgerrors.KindCanceled},
		{"unknown", errors.New("mystery"), pkgerrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.Classify(tt.err))
		})
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, pkgerrors.KindRateLimited.Retryable())
	assert.True(t, pkgerrors.KindTransient.Retryable())
	assert.False(t, pkgerrors.KindValidation.Retryable())
	assert.False(t, pkgerrors.KindAuth.Retryable())

	assert.True(t, pkgerrors.KindAuth.Fatal())
	assert.True(t, pkgerrors.KindGuardTripped.Fatal())
	assert.False(t, pkgerrors.KindNotFound.Fatal())
	assert.Equal(t, "none", pkgerrors.KindNone.String())
}
