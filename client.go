// Package storesync keeps a storefront's product catalog consistent with a
// supplier's product feed.
//
// A run fetches the supplier feed, normalizes and prices it into the desired
// catalog, fetches the storefront listing as the current catalog, diffs the
// two into an ordered change plan and applies that plan with retry, pacing
// and per-product failure isolation. Every run produces a report, even when
// a fatal error aborts it.
//
// Example usage:
//
//	client, err := storesync.New(supplier, storefront,
//	    storesync.WithPricingRule(pricing.NewRule(discount, margin)),
//	    storesync.WithMaxShrinkage(0.5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Log every finished storefront operation
//	client.OnOperation(func(o sync.Outcome) {
//	    log.Printf("%s %s: %s", o.Op, o.SKU, o.State)
//	})
//
//	// Preview the plan without touching the storefront
//	plan, _, err := client.Plan(ctx)
//
//	// Apply it
//	result, err := client.Run(ctx, sync.WithTimeout(30*time.Minute))
//	os.Exit(result.ExitCode())
package storesync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/sources"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Runner executes reconciliation runs.
type Runner interface {
	// Run performs one full reconciliation run. The result is always
	// returned; the error is non-nil only for a fatal abort, or
	// errors.ErrRunInProgress (with a nil result) when another run holds
	// the client.
	Run(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error)

	// Plan performs a run up to and including the deletion guard and returns
	// the change plan without applying it.
	Plan(ctx context.Context, opts ...pkgsync.Option) (*differ.Plan, *pkgsync.Result, error)
}

// Client reconciles a storefront with a supplier feed.
type Client interface {
	// Runner executes runs on demand
	Runner

	// AutoSyncer runs on a fixed interval
	AutoSyncer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// collaborators
	supplier   sources.Supplier
	storefront sources.Storefront

	// running is held for the duration of a run so runs never overlap
	running stdsync.Mutex

	// auto sync state
	mu         stdsync.Mutex
	syncTicker *time.Ticker
	stopCh     chan struct{}
	syncCancel context.CancelFunc
	syncDone   stdsync.WaitGroup

	hooks *hooks
}

// New creates a Client for the given supplier and storefront.
func New(supplier sources.Supplier, storefront sources.Storefront, opts ...Option) (Client, error) {
	if supplier == nil {
		return nil, errors.NewConfigError("storesync", "supplier is required", nil)
	}
	if storefront == nil {
		return nil, errors.NewConfigError("storesync", "storefront is required", nil)
	}

	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options:    o,
		supplier:   supplier,
		storefront: storefront,
		stopCh:     make(chan struct{}),
		hooks:      newHooks(),
	}

	if c.options.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// OnOperation registers a callback for every finished storefront operation.
func (c *client) OnOperation(fn OperationHook) {
	c.hooks.OnOperation(fn)
}

// OnRunComplete registers a callback for every finished run.
func (c *client) OnRunComplete(fn RunCompleteHook) {
	c.hooks.OnRunComplete(fn)
}
