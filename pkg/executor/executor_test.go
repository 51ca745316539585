package executor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/executor"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
	"github.com/agentstation/storesync/pkg/sync"
)

// scripted is a storefront whose calls fail according to a per-SKU script.
// The last scripted error of a SKU repeats for every further call.
type scripted struct {
	calls  []string
	script map[catalogs.SKU][]error
	onCall func()
}

func (s *scripted) next(kind string, sku catalogs.SKU) error {
	s.calls = append(s.calls, kind+" "+sku.String())
	if s.onCall != nil {
		s.onCall()
	}
	errs := s.script[sku]
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	if len(errs) > 1 {
		s.script[sku] = errs[1:]
	}
	return err
}

func (s *scripted) ListProducts(context.Context) ([]sources.StorefrontRecord, error) {
	return nil, nil
}

func (s *scripted) CreateProduct(_ context.Context, p sources.Payload) (string, error) {
	if err := s.next("create", p.SKU); err != nil {
		return "", err
	}
	return "new-" + p.SKU.String(), nil
}

func (s *scripted) UpdateProduct(_ context.Context, id string, _ sources.Payload) error {
	return s.next("update", skuOf(id))
}

func (s *scripted) DeleteProduct(_ context.Context, id string) error {
	return s.next("delete", skuOf(id))
}

func skuOf(id string) catalogs.SKU {
	return catalogs.SKU(strings.TrimPrefix(id, "id-"))
}

func product(sku, price string) catalogs.Product {
	return catalogs.Product{
		SKU:        catalogs.SKU(sku),
		Title:      "Product " + sku,
		FinalPrice: decimal.RequireFromString(price),
		Active:     true,
	}
}

func listed(sku, price string) catalogs.Product {
	p := product(sku, price)
	p.StorefrontID = "id-" + sku
	return p
}

// mixedPlan has one delete (D), one update (X) and one create (Y).
func mixedPlan() *differ.Plan {
	return differ.New().Diff(
		[]catalogs.Product{product("Y", "5"), product("X", "13.50")},
		[]catalogs.Product{listed("X", "12"), listed("D", "1")},
	)
}

type sleeps struct {
	delays []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newExecutor(sf sources.Storefront, sl *sleeps, opts ...executor.Option) executor.Executor {
	base := []executor.Option{
		executor.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		executor.WithBackoff(executor.Backoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}),
		executor.WithSleep(sl.sleep),
	}
	return executor.New(sf, append(base, opts...)...)
}

func run(t *testing.T, ctx context.Context, e executor.Executor, plan *differ.Plan) (*sync.Result, error) {
	t.Helper()
	result := sync.NewResult(time.Now())
	result.AddPlan(plan)
	err := e.Execute(ctx, plan, result)
	return result, err
}

func TestExecuteOrder(t *testing.T) {
	logging.DisableLoggingForTest(t)
	sf := &scripted{}

	result, err := run(t, context.Background(), newExecutor(sf, &sleeps{}), mixedPlan())
	require.NoError(t, err)

	assert.Equal(t, []string{"delete D", "update X", "create Y"}, sf.calls)
	assert.Equal(t, 3, result.Totals().Succeeded)
	assert.Empty(t, result.Failures)
	assert.False(t, result.Truncated)
}

func TestExecuteRetriesTransient(t *testing.T) {
	logging.DisableLoggingForTest(t)
	unavailable := errors.NewAPIError("shopify", 503, "unavailable")
	sf := &scripted{script: map[catalogs.SKU][]error{"X": {unavailable, unavailable, nil}}}
	sl := &sleeps{}

	var outcomes []sync.Outcome
	e := newExecutor(sf, sl, executor.WithObserver(func(o sync.Outcome) {
		outcomes = append(outcomes, o)
	}))

	result, err := run(t, context.Background(), e, mixedPlan())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sl.delays)
	require.Len(t, outcomes, 3)
	assert.Equal(t, sync.StateSucceeded, outcomes[1].State)
	assert.Equal(t, 3, outcomes[1].Attempts)
	assert.Equal(t, "new-Y", outcomes[2].StorefrontID)
	assert.Equal(t, 3, result.Totals().Succeeded)
}

func TestExecutePartialFailureIsolation(t *testing.T) {
	logging.DisableLoggingForTest(t)
	sf := &scripted{script: map[catalogs.SKU][]error{
		"X": {errors.NewAPIError("shopify", 502, "bad gateway")},
	}}
	sl := &sleeps{}

	result, err := run(t, context.Background(), newExecutor(sf, sl), mixedPlan())
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	failed := result.Failures[0]
	assert.Equal(t, catalogs.SKU("X"), failed.SKU)
	assert.Equal(t, sync.StateFailed, failed.State)
	assert.Equal(t, 4, failed.Attempts)
	assert.Equal(t, errors.KindTransient, failed.ErrorKind)

	assert.Equal(t, sync.Counts{Planned: 1, Attempted: 1, Succeeded: 1}, result.ByOp[differ.OpCreate])
	assert.Equal(t, "create Y", sf.calls[len(sf.calls)-1])
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}, sl.delays)
	assert.True(t, result.OK())
}

func TestExecutePermanentFailures(t *testing.T) {
	logging.DisableLoggingForTest(t)
	sf := &scripted{script: map[catalogs.SKU][]error{
		"D": {errors.NewAPIError("shopify", 404, "not found")},
		"X": {errors.NewAPIError("shopify", 422, "price is invalid")},
	}}
	sl := &sleeps{}

	result, err := run(t, context.Background(), newExecutor(sf, sl), mixedPlan())
	require.NoError(t, err)

	require.Len(t, result.Failures, 2)
	assert.Equal(t, errors.KindNotFound, result.Failures[0].ErrorKind)
	assert.Equal(t, errors.KindValidation, result.Failures[1].ErrorKind)
	assert.Equal(t, 1, result.Failures[1].Attempts, "permanent failures are not retried")
	assert.Empty(t, sl.delays)
	assert.Equal(t, 1, result.ByOp[differ.OpCreate].Succeeded)
}

func TestExecuteAuthAborts(t *testing.T) {
	logging.DisableLoggingForTest(t)
	sf := &scripted{script: map[catalogs.SKU][]error{
		"D": {errors.NewAPIError("shopify", 401, "invalid token")},
	}}

	result, err := run(t, context.Background(), newExecutor(sf, &sleeps{}), mixedPlan())
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))

	var authErr *errors.AuthenticationError
	assert.ErrorAs(t, err, &authErr)

	assert.Equal(t, []string{"delete D"}, sf.calls)
	total := result.Totals()
	assert.Equal(t, 1, total.Failed)
	assert.Equal(t, 2, total.NotAttempted)
	assert.False(t, result.Truncated)
}

func TestExecuteHonorsRetryAfter(t *testing.T) {
	logging.DisableLoggingForTest(t)
	limited := errors.NewAPIError("shopify", 429, "slow down")
	limited.RetryAfter = 2 * time.Second
	sf := &scripted{script: map[catalogs.SKU][]error{"Y": {limited, nil}}}
	sl := &sleeps{}

	_, err := run(t, context.Background(), newExecutor(sf, sl), mixedPlan())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, sl.delays)
}

func TestExecuteBudgetExhausted(t *testing.T) {
	logging.DisableLoggingForTest(t)

	t.Run("before the first operation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sf := &scripted{}

		result, err := run(t, ctx, newExecutor(sf, &sleeps{}), mixedPlan())
		require.NoError(t, err)
		assert.Empty(t, sf.calls)
		assert.True(t, result.Truncated)
		assert.Equal(t, 3, result.Totals().NotAttempted)
	})

	t.Run("during a call", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sf := &scripted{script: map[catalogs.SKU][]error{"X": {context.Canceled}}}
		sf.onCall = func() {
			if len(sf.calls) == 2 {
				cancel()
			}
		}

		result, err := run(t, ctx, newExecutor(sf, &sleeps{}), mixedPlan())
		require.NoError(t, err)
		assert.Equal(t, []string{"delete D", "update X"}, sf.calls)
		assert.True(t, result.Truncated)
		assert.Equal(t, 1, result.ByOp[differ.OpDelete].Succeeded)
		assert.Equal(t, 1, result.ByOp[differ.OpUpdate].Failed)
		assert.Equal(t, 1, result.ByOp[differ.OpCreate].NotAttempted)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, errors.KindCanceled, result.Failures[0].ErrorKind)
	})

	t.Run("during a backoff wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sf := &scripted{script: map[catalogs.SKU][]error{"D": {errors.NewAPIError("shopify", 500, "oops")}}}
		sl := func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		}

		result, err := run(t, ctx, newExecutor(sf, &sleeps{}, executor.WithSleep(sl)), mixedPlan())
		require.NoError(t, err)
		assert.Equal(t, []string{"delete D"}, sf.calls)
		assert.True(t, result.Truncated)
		require.Len(t, result.Failures, 1)
		assert.Contains(t, result.Failures[0].Message, "after 1 attempts")
		assert.Equal(t, 2, result.Totals().NotAttempted)
	})
}

func TestExecuteLogsOutcomes(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	sf := &scripted{script: map[catalogs.SKU][]error{"Y": {errors.NewAPIError("shopify", 422, "bad")}}}

	_, err := run(t, ctx, newExecutor(sf, &sleeps{}), mixedPlan())
	require.NoError(t, err)

	tl.AssertContains(t, `"sku":"Y"`)
	tl.AssertContains(t, `"error_kind":"validation"`)
}

func TestExecuteEmptyPlan(t *testing.T) {
	sf := &scripted{}
	result, err := run(t, context.Background(), newExecutor(sf, &sleeps{}), differ.New().Diff(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, sf.calls)
	assert.False(t, result.HasChanges())
}
