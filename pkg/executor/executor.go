// Package executor applies a change plan to the storefront one operation at a
// time, with retry, pacing and per-operation failure isolation.
package executor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
	"github.com/agentstation/storesync/pkg/sync"
)

// errBudget marks an operation cut short because the run budget ran out.
var errBudget = stderrors.New("run budget exhausted")

// Executor applies change plans.
type Executor interface {
	// Execute issues the plan's operations in order and records every
	// outcome in result. Per-operation failures never escape; the returned
	// error is non-nil only when an authentication failure aborts the run.
	// When ctx is done the remaining operations are recorded as not
	// attempted and result is marked truncated.
	Execute(ctx context.Context, plan *differ.Plan, result *sync.Result) error
}

type executor struct {
	storefront  sources.Storefront
	maxAttempts int
	backoff     Backoff
	limiter     *rate.Limiter
	sleep       SleepFunc
	observers   []Observer
}

// New creates an Executor for the given storefront.
func New(storefront sources.Storefront, opts ...Option) Executor {
	e := &executor{
		storefront:  storefront,
		maxAttempts: constants.MaxAttempts,
		backoff:     Backoff{Base: constants.RetryBackoff, Max: constants.MaxRetryBackoff},
		limiter:     rate.NewLimiter(rate.Limit(constants.DefaultRequestsPerSecond), constants.BurstSize),
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute implements Executor.
func (e *executor) Execute(ctx context.Context, plan *differ.Plan, result *sync.Result) error {
	logger := logging.FromContext(ctx)

	for i, op := range plan.Operations {
		if ctx.Err() != nil {
			e.abandon(ctx, plan.Operations[i:], result)
			result.Truncated = true
			logger.Warn().Int("remaining", len(plan.Operations)-i).Msg("Run budget exhausted, stopping")
			return nil
		}

		outcome, err := e.apply(ctx, op)
		e.record(ctx, result, outcome)

		switch {
		case outcome.State == sync.StateNotAttempted || stderrors.Is(err, errBudget):
			e.abandon(ctx, plan.Operations[i+1:], result)
			result.Truncated = true
			logger.Warn().Int("remaining", len(plan.Operations)-i-1).Msg("Run budget exhausted, stopping")
			return nil

		case outcome.ErrorKind == errors.KindAuth:
			e.abandon(ctx, plan.Operations[i+1:], result)
			logger.Error().Err(err).Str("sku", op.SKU.String()).Msg("Storefront rejected credentials, aborting run")
			return authError(op, err)
		}
	}

	return nil
}

// apply runs the state machine of one operation.
func (e *executor) apply(ctx context.Context, op differ.Operation) (sync.Outcome, error) {
	logger := logging.FromContext(ctx).With().
		Str("sku", op.SKU.String()).
		Str("op", string(op.Op)).
		Logger()

	outcome := sync.Outcome{
		SKU:          op.SKU,
		Op:           op.Op,
		StorefrontID: op.StorefrontID,
		State:        sync.StatePending,
	}

	var lastErr error
	for {
		if err := e.limiter.Wait(ctx); err != nil {
			return interrupted(ctx, outcome, lastErr)
		}

		outcome.Attempts++
		id, err := e.dispatch(ctx, op)

		if err != nil && ctx.Err() != nil {
			outcome.State = sync.StateFailed
			outcome.ErrorKind = errors.Classify(ctx.Err())
			outcome.Message = err.Error()
			return outcome, fmt.Errorf("%w: %w", errBudget, err)
		}

		outcome.State = Next(outcome.Attempts, ClassOf(err), e.maxAttempts)
		switch outcome.State {
		case sync.StateSucceeded:
			if id != "" {
				outcome.StorefrontID = id
			}
			return outcome, nil

		case sync.StateFailed:
			outcome.ErrorKind = errors.Classify(err)
			outcome.Message = err.Error()
			return outcome, err
		}

		lastErr = err
		delay := e.backoff.Delay(outcome.Attempts, errors.RetryAfter(err))
		logger.Debug().
			Err(err).
			Int("attempt", outcome.Attempts).
			Dur("delay", delay).
			Msg("Retrying storefront call")

		if err := e.sleep(ctx, delay); err != nil {
			return interrupted(ctx, outcome, lastErr)
		}
	}
}

// interrupted finalizes an operation whose wait was cut short by the run
// budget. An operation that never reached the storefront is not attempted.
func interrupted(ctx context.Context, outcome sync.Outcome, lastErr error) (sync.Outcome, error) {
	if outcome.Attempts == 0 {
		outcome.State = sync.StateNotAttempted
		return outcome, errBudget
	}

	outcome.State = sync.StateFailed
	outcome.ErrorKind = errors.KindTimeout
	if ctx.Err() != nil {
		outcome.ErrorKind = errors.Classify(ctx.Err())
	}
	outcome.Message = fmt.Sprintf("run budget exhausted after %d attempts: %v", outcome.Attempts, lastErr)
	return outcome, errBudget
}

func (e *executor) dispatch(ctx context.Context, op differ.Operation) (string, error) {
	switch op.Op {
	case differ.OpCreate:
		return e.storefront.CreateProduct(ctx, op.Payload)
	case differ.OpUpdate:
		return "", e.storefront.UpdateProduct(ctx, op.StorefrontID, op.Payload)
	case differ.OpDelete:
		return "", e.storefront.DeleteProduct(ctx, op.StorefrontID)
	}
	return "", errors.NewValidationError("op", op.Op, "unknown operation kind")
}

func (e *executor) record(ctx context.Context, result *sync.Result, outcome sync.Outcome) {
	result.Record(outcome)
	logOutcome(logging.FromContext(ctx), outcome)
	for _, observe := range e.observers {
		observe(outcome)
	}
}

// abandon records the operations as not attempted.
func (e *executor) abandon(ctx context.Context, ops []differ.Operation, result *sync.Result) {
	for _, op := range ops {
		e.record(ctx, result, sync.Outcome{
			SKU:          op.SKU,
			Op:           op.Op,
			StorefrontID: op.StorefrontID,
			State:        sync.StateNotAttempted,
		})
	}
}

func authError(op differ.Operation, err error) error {
	var authErr *errors.AuthenticationError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return errors.NewAuthenticationError("storefront", "header",
		fmt.Sprintf("%s %s rejected", op.Op, op.SKU), err)
}

// logOutcome logs a terminal outcome, failures at warn level.
func logOutcome(logger *zerolog.Logger, o sync.Outcome) {
	var event *zerolog.Event
	switch o.State {
	case sync.StateSucceeded:
		event = logger.Info()
	case sync.StateFailed:
		event = logger.Warn().Str("error_kind", o.ErrorKind.String()).Str("error", o.Message)
	default:
		event = logger.Debug()
	}
	event.
		Str("sku", o.SKU.String()).
		Str("op", string(o.Op)).
		Str("state", string(o.State)).
		Int("attempts", o.Attempts).
		Msg("Storefront operation finished")
}
