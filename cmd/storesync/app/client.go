package app

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/internal/sources/feedfile"
	"github.com/agentstation/storesync/internal/sources/memory"
	"github.com/agentstation/storesync/internal/sources/promoopcion"
	"github.com/agentstation/storesync/internal/sources/shopify"
	"github.com/agentstation/storesync/pkg/executor"
	"github.com/agentstation/storesync/pkg/pricing"
	"github.com/agentstation/storesync/pkg/sources"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// CollaboratorsFunc builds the supplier and storefront of a client.
type CollaboratorsFunc func(config *Config, logger *zerolog.Logger) (sources.Supplier, sources.Storefront, error)

// BuildCollaborators builds the supplier and storefront selected by config:
// a feed file or the supplier API, and the in-memory sandbox or the
// storefront API.
func BuildCollaborators(config *Config, logger *zerolog.Logger) (sources.Supplier, sources.Storefront, error) {
	var (
		supplier   sources.Supplier
		storefront sources.Storefront
	)

	if config.Supplier.File != "" {
		feed, err := feedfile.New(config.Supplier.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Str("path", feed.Path()).Msg("Using supplier feed file")
		supplier = feed
	} else {
		api, err := promoopcion.New(config.Supplier.User, config.Supplier.Password,
			promoopcion.WithBaseURL(config.Supplier.URL))
		if err != nil {
			return nil, nil, err
		}
		supplier = api
	}

	if config.Storefront.Sandbox {
		logger.Warn().Msg("Storefront sandbox enabled, changes are kept in memory only")
		storefront = memory.New()
	} else {
		shop, err := shopify.New(config.Storefront.Shop, config.Storefront.Token,
			shopify.WithAPIVersion(config.Storefront.APIVersion),
			shopify.WithVendor(config.Storefront.Vendor))
		if err != nil {
			return nil, nil, err
		}
		storefront = shop
	}

	return supplier, storefront, nil
}

// clientOptions converts the configuration into client options.
func clientOptions(config *Config) ([]storesync.Option, error) {
	rule, err := pricing.ParseRule(config.Pricing.DiscountRate, config.Pricing.MarginRate, config.Pricing.Scale)
	if err != nil {
		return nil, err
	}

	opts := []storesync.Option{
		storesync.WithPricingRule(rule),
		storesync.WithMaxShrinkage(config.MaxShrinkage),
		storesync.WithExecutorOptions(
			executor.WithMaxAttempts(config.Executor.MaxAttempts),
			executor.WithBackoff(executor.Backoff{
				Base: config.Executor.BaseBackoff,
				Max:  config.Executor.MaxBackoff,
			}),
			executor.WithRateLimit(config.Executor.RequestsPerSecond, config.Executor.Burst),
		),
		storesync.WithRunDefaults(
			pkgsync.WithStrategy(config.Sync.Strategy),
			pkgsync.WithTimeout(config.Sync.Timeout),
		),
		storesync.WithAutoSyncInterval(config.ScheduleInterval),
	}

	if config.Sync.DiscontinuedPolicy != "" {
		opts = append(opts, storesync.WithDiscontinuedPolicy(config.Sync.DiscontinuedPolicy))
	}
	if len(config.Sync.IgnoredFields) > 0 {
		opts = append(opts, storesync.WithIgnoredFields(config.Sync.IgnoredFields...))
	}

	return opts, nil
}
