package storesync

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/convert"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/executor"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/pricing"
	"github.com/agentstation/storesync/pkg/sources"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// pricingSource labels skips produced by pricing rejections.
const pricingSource = "pricing"

// Run performs one reconciliation run.
func (c *client) Run(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.running.TryLock() {
		logging.FromContext(ctx).Warn().Msg("Run already in progress, skipping")
		return nil, errors.ErrRunInProgress
	}
	defer c.running.Unlock()

	_, result, err := c.run(ctx, true, opts)
	return result, err
}

// Plan performs a run without applying the plan.
func (c *client) Plan(ctx context.Context, opts ...pkgsync.Option) (*differ.Plan, *pkgsync.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.run(ctx, false, opts)
}

// desiredCatalog is the supplier side of a run.
type desiredCatalog struct {
	products []catalogs.Product
	held     []catalogs.SKU
	scope    map[catalogs.SKU]bool // every supplier SKU seen this run
}

// activeCount counts products that will exist on the storefront after the
// run, held ones included.
func (d desiredCatalog) activeCount() int {
	n := len(d.held)
	for _, p := range d.products {
		if p.Active {
			n++
		}
	}
	return n
}

func (c *client) run(ctx context.Context, execute bool, opts []pkgsync.Option) (*differ.Plan, *pkgsync.Result, error) {
	// Step 1: Parse options
	options := pkgsync.Defaults().Apply(c.options.runDefaults...).Apply(opts...)

	result := pkgsync.NewResult(time.Now())
	result.DryRun = options.DryRun || !execute

	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.FromContext(ctx)
	logger.Info().
		Bool("dry_run", result.DryRun).
		Str("strategy", string(options.Strategy)).
		Msg("Run started")

	if err := options.Validate(); err != nil {
		return nil, result, c.fail(ctx, result, err)
	}

	// Step 2: Setup context with the run budget
	parent := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	// Step 3: The pricing rule must hold before anything is fetched
	if err := c.options.rule.Validate(); err != nil {
		return nil, result, c.fail(ctx, result, err)
	}

	// Step 4: Build the desired catalog from the supplier feed
	desired, err := c.desired(ctx, options, result)
	if err != nil {
		return nil, result, c.fail(ctx, result, err)
	}

	// Step 5: Build the current catalog from the storefront listing
	current, err := c.current(ctx, desired, options, result)
	if err != nil {
		return nil, result, c.fail(ctx, result, err)
	}

	// Step 6: Diff and narrow the plan to the requested strategy
	plan := differ.New(
		differ.WithDiscontinuedPolicy(c.options.policy),
		differ.WithHeldSKUs(desired.held...),
		differ.WithIgnoredFields(c.options.ignoredFields...),
	).Diff(desired.products, current).Filter(options.Strategy)
	result.AddPlan(plan)

	logger.Info().
		Int("deletes", plan.Summary.Deletes).
		Int("updates", plan.Summary.Updates).
		Int("creates", plan.Summary.Creates).
		Msg("Change plan ready")

	// Step 7: Refuse plans built from an implausibly small feed
	if err := checkGuard(desired.activeCount(), len(current), c.options.maxShrinkage); err != nil {
		return plan, result, c.fail(ctx, result, err)
	}

	if result.DryRun {
		logger.Info().Bool("dry_run", true).Msg("Dry run completed - no changes applied")
		c.complete(ctx, result)
		return plan, result, nil
	}

	// Step 8: Apply the plan
	execOpts := append(slices.Clone(c.options.executor), executor.WithObserver(c.hooks.triggerOperation))
	if err := executor.New(c.storefront, execOpts...).Execute(ctx, plan, result); err != nil {
		return plan, result, c.fail(ctx, result, err)
	}

	// An interrupted run is reported as canceled; an exhausted budget is not fatal.
	if result.Truncated && stderrors.Is(parent.Err(), context.Canceled) {
		return plan, result, c.fail(ctx, result, parent.Err())
	}

	c.complete(ctx, result)
	return plan, result, nil
}

// desired fetches, normalizes and prices the supplier feed.
func (c *client) desired(ctx context.Context, options *pkgsync.Options, result *pkgsync.Result) (desiredCatalog, error) {
	logger := logging.FromContext(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, constants.SupplierFetchTimeout)
	defer cancel()

	snapshot, err := c.supplier.ListProducts(fetchCtx)
	if err != nil {
		return desiredCatalog{}, fetchError(sources.SupplierID, err)
	}
	if !snapshot.Complete {
		return desiredCatalog{}, incompleteSnapshot(len(snapshot.Records))
	}

	records := snapshot.Records
	if options.Limit > 0 && len(records) > options.Limit {
		records = records[:options.Limit]
	}

	normalized := convert.Supplier(records)
	result.AddSkipped(normalized.Skipped...)

	priced, rejected := pricing.PriceAll(normalized.Products, c.options.rule)
	held := make([]catalogs.SKU, 0, len(rejected))
	for _, r := range rejected {
		held = append(held, r.SKU)
		result.AddSkipped(pkgsync.Skip{
			Source: pricingSource,
			Index:  r.Index,
			SKU:    r.SKU,
			Reason: r.Err.Error(),
		})
		logger.Warn().Err(r.Err).Str("sku", r.SKU.String()).Msg("Product could not be priced, holding")
	}

	scope := make(map[catalogs.SKU]bool, len(normalized.Products))
	for _, p := range normalized.Products {
		scope[p.SKU] = true
	}

	result.Supplied = len(priced)
	logger.Info().
		Int("records", len(snapshot.Records)).
		Int("products", len(priced)).
		Int("held", len(held)).
		Int("skipped", len(normalized.Skipped)).
		Msg("Supplier feed fetched")

	return desiredCatalog{products: priced, held: held, scope: scope}, nil
}

// current fetches and normalizes the storefront listing. With a limit, only
// products in the supplier scope take part in the run.
func (c *client) current(ctx context.Context, desired desiredCatalog, options *pkgsync.Options, result *pkgsync.Result) ([]catalogs.Product, error) {
	records, err := c.storefront.ListProducts(ctx)
	if err != nil {
		return nil, fetchError(sources.StorefrontID, err)
	}

	normalized := convert.Storefront(records)
	result.AddSkipped(normalized.Skipped...)

	products := normalized.Products
	if options.Limit > 0 {
		products = slices.DeleteFunc(products, func(p catalogs.Product) bool {
			return !desired.scope[p.SKU]
		})
	}

	result.Listed = len(products)
	logging.FromContext(ctx).Info().
		Int("records", len(records)).
		Int("products", len(products)).
		Msg("Storefront listing fetched")

	return products, nil
}

// fail records a fatal error and completes the run.
func (c *client) fail(ctx context.Context, result *pkgsync.Result, err error) error {
	result.SetFatal(err)
	logging.FromContext(ctx).Error().
		Err(err).
		Str("error_kind", result.Fatal.Kind.String()).
		Msg("Run aborted")
	c.complete(ctx, result)
	return err
}

// complete finalizes the report and fires the run hooks.
func (c *client) complete(ctx context.Context, result *pkgsync.Result) {
	result.Finish(time.Now())
	total := result.Totals()
	logging.FromContext(ctx).Info().
		Int("planned", total.Planned).
		Int("succeeded", total.Succeeded).
		Int("failed", total.Failed).
		Int("not_attempted", total.NotAttempted).
		Int("skipped", len(result.Skipped)).
		Bool("truncated", result.Truncated).
		Dur("duration", result.Duration()).
		Msg("Run completed")
	c.hooks.triggerRunComplete(result)
}

// fetchError makes a listing failure fatal while keeping its cause
// classifiable, so rejected credentials still report as auth.
func fetchError(source sources.ID, err error) error {
	if errors.IsFetchError(err) {
		return err
	}
	return errors.WrapFetch(source.String(), err)
}
