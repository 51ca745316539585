package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/sources/feedfile"
	"github.com/agentstation/storesync/internal/sources/memory"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// testConfig runs against memory collaborators with no pacing or markup.
func testConfig() *Config {
	return &Config{
		Output: "json",
		Storefront: StorefrontConfig{
			Sandbox: true,
		},
		Pricing: PricingConfig{DiscountRate: "0", MarginRate: "0", Scale: 2},
		Sync: SyncConfig{
			DiscontinuedPolicy: differ.DiscontinuedDelete,
			Strategy:           differ.ApplyAll,
			Timeout:            time.Minute,
		},
		Executor: ExecutorConfig{
			MaxAttempts: 1,
			BaseBackoff: time.Millisecond,
			MaxBackoff:  time.Millisecond,
			Burst:       1,
		},
		MaxShrinkage:     0.5,
		ScheduleInterval: time.Hour,
		LogLevel:         "error",
		LogOutput:        "discard",
	}
}

func record(sku, cost string) sources.SupplierRecord {
	return sources.SupplierRecord{
		ParentSKU: "P-" + sku,
		Name:      "Product " + sku,
		Variants: []sources.SupplierVariant{
			{SKU: sku, Price: sources.Amount(cost), Status: sources.ActiveStatus},
		},
	}
}

// testApp wires an App to the given collaborators and captures its output.
func testApp(t *testing.T, supplier sources.Supplier, storefront sources.Storefront) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	isolate(t)
	logging.DisableLoggingForTest(t)

	var stdout, stderr bytes.Buffer
	nop := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2026-10-19", "test",
		WithConfig(testConfig()),
		WithLogger(&nop),
		WithOutput(&stdout, &stderr),
		WithCollaborators(func(*Config, *zerolog.Logger) (sources.Supplier, sources.Storefront, error) {
			return supplier, storefront, nil
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app, &stdout, &stderr
}

func TestNew(t *testing.T) {
	isolate(t)

	app, err := New("1.0.0", "abc123", "2026-10-19", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2026-10-19", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
	assert.Equal(t, time.Hour, app.ScheduleInterval())
}

func TestClientSingleton(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())

	c1, err := app.Client()
	require.NoError(t, err)
	c2, err := app.Client()
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	c3, err := app.Client(storesync.WithAutoSyncInterval(time.Minute))
	require.NoError(t, err)
	assert.NotSame(t, c1, c3, "options build a separate client")
}

func TestClientInvalidPricing(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())
	app.config.Pricing.MarginRate = "lots"

	_, err := app.Client()
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.Equal(t, pkgsync.ExitConfig, application.ExitCodeOf(err))
}

func TestClientPricingScaleTooFine(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())
	app.config.Pricing.Scale = 3

	_, err := app.Client()
	assert.True(t, errors.IsConfigError(err))
	assert.Equal(t, pkgsync.ExitConfig, application.ExitCodeOf(err))
}

func TestClientInvalidGuard(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())
	app.config.MaxShrinkage = 2

	_, err := app.Client()
	assert.Equal(t, pkgsync.ExitConfig, application.ExitCodeOf(err))
}

func TestBuildCollaborators(t *testing.T) {
	nop := zerolog.Nop()

	t.Run("feed file and sandbox", func(t *testing.T) {
		config := testConfig()
		config.Supplier.File = "feed.json"

		supplier, storefront, err := BuildCollaborators(config, &nop)
		require.NoError(t, err)
		assert.IsType(t, &feedfile.Supplier{}, supplier)
		assert.IsType(t, &memory.Storefront{}, storefront)
	})

	t.Run("supplier credentials required", func(t *testing.T) {
		_, _, err := BuildCollaborators(testConfig(), &nop)
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("storefront credentials required", func(t *testing.T) {
		config := testConfig()
		config.Supplier.File = "feed.json"
		config.Storefront.Sandbox = false

		_, _, err := BuildCollaborators(config, &nop)
		assert.True(t, errors.IsConfigError(err))
	})
}

func TestExecuteRun(t *testing.T) {
	storefront := memory.New()
	app, stdout, stderr := testApp(t, memory.NewSupplier(record("A-1", "100"), record("B-2", "50")), storefront)

	require.NoError(t, app.Execute(context.Background(), []string{"run"}))

	var result pkgsync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, 2, result.Supplied)
	assert.Equal(t, 2, result.ByOp[differ.OpCreate].Succeeded)
	assert.Equal(t, 2, storefront.Len())
	assert.Contains(t, stderr.String(), "Applied 2 operations")

	t.Run("second run is a no-op", func(t *testing.T) {
		stdout.Reset()
		stderr.Reset()

		require.NoError(t, app.Execute(context.Background(), []string{"run"}))
		assert.Contains(t, stderr.String(), "Storefront already in sync")
	})
}

func TestExecuteRunDryRun(t *testing.T) {
	storefront := memory.New()
	app, stdout, _ := testApp(t, memory.NewSupplier(record("A-1", "100")), storefront)

	require.NoError(t, app.Execute(context.Background(), []string{"run", "--dry-run"}))

	var result pkgsync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 0, storefront.Len())
}

func TestExecuteRunAborted(t *testing.T) {
	supplier := memory.NewSupplier()
	supplier.SetError(errors.NewFetchError("supplier", "API returned an error: maintenance", nil))
	app, stdout, _ := testApp(t, supplier, memory.New())

	err := app.Execute(context.Background(), []string{"run"})
	require.Error(t, err)
	assert.Equal(t, pkgsync.ExitFetch, application.ExitCodeOf(err))

	var result pkgsync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result), "aborted runs still print their report")
	require.NotNil(t, result.Fatal)
	assert.Equal(t, errors.KindFetch, result.Fatal.Kind)
}

func TestExecutePlan(t *testing.T) {
	storefront := memory.New()
	app, stdout, _ := testApp(t, memory.NewSupplier(record("A-1", "100")), storefront)

	require.NoError(t, app.Execute(context.Background(), []string{"plan", "-o", "table"}))
	assert.Contains(t, stdout.String(), "+ create")
	assert.Contains(t, stdout.String(), "A-1")
	assert.Equal(t, 0, storefront.Len(), "plan never mutates the storefront")
}

func TestExecuteVersion(t *testing.T) {
	app, stdout, _ := testApp(t, memory.NewSupplier(), memory.New())

	require.NoError(t, app.Execute(context.Background(), []string{"version"}))

	var info map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "abc123", info["commit"])
}

func TestExecuteUnknownCommand(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())
	assert.Error(t, app.Execute(context.Background(), []string{"frobnicate"}))
}

func TestShutdownStopsSchedule(t *testing.T) {
	app, _, _ := testApp(t, memory.NewSupplier(), memory.New())

	c, err := app.Client()
	require.NoError(t, err)
	require.NoError(t, c.AutoSyncOn())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, app.Shutdown(ctx))
}
