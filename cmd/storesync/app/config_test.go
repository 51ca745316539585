package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
)

// isolate keeps LoadConfig away from the developer's home config.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.23", config.Pricing.DiscountRate)
	assert.Equal(t, "0.6667", config.Pricing.MarginRate)
	assert.Equal(t, int32(2), config.Pricing.Scale)
	assert.Equal(t, 0.5, config.MaxShrinkage)
	assert.Equal(t, differ.DiscontinuedDelete, config.Sync.DiscontinuedPolicy)
	assert.Equal(t, differ.ApplyAll, config.Sync.Strategy)
	assert.Equal(t, 30*time.Minute, config.Sync.Timeout)
	assert.Equal(t, 4, config.Executor.MaxAttempts)
	assert.Equal(t, time.Second, config.Executor.BaseBackoff)
	assert.Equal(t, 30*time.Second, config.Executor.MaxBackoff)
	assert.Equal(t, 2.0, config.Executor.RequestsPerSecond)
	assert.Equal(t, 1, config.Executor.Burst)
	assert.Equal(t, time.Hour, config.ScheduleInterval)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, "stderr", config.LogOutput)
	assert.Empty(t, config.LogLevel, "an empty level lets -v/-q decide")
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("STORESYNC_PRICING_MARGIN_RATE", "0.5")
	t.Setenv("STORESYNC_SYNC_TIMEOUT", "10m")
	t.Setenv("STORESYNC_STOREFRONT_SANDBOX", "true")
	t.Setenv("STORESYNC_EXECUTOR_MAX_ATTEMPTS", "2")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.5", config.Pricing.MarginRate)
	assert.Equal(t, 10*time.Minute, config.Sync.Timeout)
	assert.True(t, config.Storefront.Sandbox)
	assert.Equal(t, 2, config.Executor.MaxAttempts)
}

func TestLoadConfigLegacyEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PROMO_USER", "legacy-user")
	t.Setenv("PROMO_PASSWORD", "legacy-password")
	t.Setenv("SHOPIFY_URL", "shop.myshopify.com")
	t.Setenv("SHOPIFY_TOKEN", "legacy-token")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "legacy-user", config.Supplier.User)
	assert.Equal(t, "legacy-password", config.Supplier.Password)
	assert.Equal(t, "shop.myshopify.com", config.Storefront.Shop)
	assert.Equal(t, "legacy-token", config.Storefront.Token)

	t.Run("prefixed name wins", func(t *testing.T) {
		t.Setenv("STORESYNC_SUPPLIER_USER", "new-user")

		config, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "new-user", config.Supplier.User)
	})
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "storesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
supplier:
  file: feed.yaml
storefront:
  sandbox: true
pricing:
  discount_rate: 0.1
  margin_rate: 0.5
guard:
  max_shrinkage: 0.25
sync:
  discontinued_policy: deactivate
  ignored_fields: [description]
schedule:
  interval: 15m
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, "feed.yaml", config.Supplier.File)
	assert.True(t, config.Storefront.Sandbox)
	assert.Equal(t, "0.1", config.Pricing.DiscountRate)
	assert.Equal(t, "0.5", config.Pricing.MarginRate)
	assert.Equal(t, 0.25, config.MaxShrinkage)
	assert.Equal(t, differ.DiscontinuedDeactivate, config.Sync.DiscontinuedPolicy)
	assert.Equal(t, []string{"description"}, config.Sync.IgnoredFields)
	assert.Equal(t, 15*time.Minute, config.ScheduleInterval)

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("STORESYNC_GUARD_MAX_SHRINKAGE", "0.75")

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 0.75, config.MaxShrinkage)
	})
}

func TestLoadConfigMissingFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsConfigError(err))
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Output: "table", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "table", config.Output, "an unset flag keeps the configured value")
	assert.Equal(t, "info", config.LogLevel)

	config.UpdateFromFlags(false, false, false, "json", "debug")
	assert.Equal(t, "json", config.Output)
	assert.Equal(t, "debug", config.LogLevel)
}
