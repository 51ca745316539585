package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
)

// envPrefix namespaces environment variables: pricing.margin_rate is read
// from STORESYNC_PRICING_MARGIN_RATE.
const envPrefix = "STORESYNC"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file
	ConfigFile string

	Supplier   SupplierConfig
	Storefront StorefrontConfig
	Pricing    PricingConfig
	Sync       SyncConfig
	Executor   ExecutorConfig

	// Deletion guard
	MaxShrinkage float64

	// Scheduling and metrics
	ScheduleInterval time.Duration
	MetricsAddr      string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// SupplierConfig selects and authenticates the supplier feed. File, when
// set, replaces the supplier API with a JSON or YAML feed on disk.
type SupplierConfig struct {
	URL      string
	User     string
	Password string
	File     string
}

// StorefrontConfig selects and authenticates the storefront. Sandbox runs
// against an empty in-memory storefront.
type StorefrontConfig struct {
	Shop       string
	Token      string
	APIVersion string
	Vendor     string
	Sandbox    bool
}

// PricingConfig holds the markup rule. Rates are kept as strings so they are
// parsed exactly as decimals.
type PricingConfig struct {
	DiscountRate string
	MarginRate   string
	Scale        int32
}

// SyncConfig holds run defaults.
type SyncConfig struct {
	DiscontinuedPolicy differ.DiscontinuedPolicy
	Strategy           differ.ApplyStrategy
	Timeout            time.Duration
	IgnoredFields      []string
}

// ExecutorConfig holds retry and pacing of storefront calls.
type ExecutorConfig struct {
	MaxAttempts       int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	Burst             int
}

// legacyEnv maps keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"supplier.user":     "PROMO_USER",
	"supplier.password": "PROMO_PASSWORD",
	"storefront.shop":   "SHOPIFY_URL",
	"storefront.token":  "SHOPIFY_TOKEN",
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (STORESYNC_*, then legacy names)
// 3. .env files
// 4. Config file (--config, ./.storesync.yaml or ~/.storesync.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, errors.NewConfigError("config", "failed to bind environment", err)
	}

	if configFile == "" {
		configFile = os.Getenv(envPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		v.SetConfigName(".storesync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		// A missing config file is fine; a broken one is not
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Output:  v.GetString("output"),

		ConfigFile: v.ConfigFileUsed(),

		Supplier: SupplierConfig{
			URL:      v.GetString("supplier.url"),
			User:     v.GetString("supplier.user"),
			Password: v.GetString("supplier.password"),
			File:     v.GetString("supplier.file"),
		},
		Storefront: StorefrontConfig{
			Shop:       v.GetString("storefront.shop"),
			Token:      v.GetString("storefront.token"),
			APIVersion: v.GetString("storefront.api_version"),
			Vendor:     v.GetString("storefront.vendor"),
			Sandbox:    v.GetBool("storefront.sandbox"),
		},
		Pricing: PricingConfig{
			DiscountRate: v.GetString("pricing.discount_rate"),
			MarginRate:   v.GetString("pricing.margin_rate"),
			Scale:        v.GetInt32("pricing.scale"),
		},
		Sync: SyncConfig{
			DiscontinuedPolicy: differ.DiscontinuedPolicy(v.GetString("sync.discontinued_policy")),
			Strategy:           differ.ApplyStrategy(v.GetString("sync.strategy")),
			Timeout:            v.GetDuration("sync.timeout"),
			IgnoredFields:      v.GetStringSlice("sync.ignored_fields"),
		},
		Executor: ExecutorConfig{
			MaxAttempts:       v.GetInt("executor.max_attempts"),
			BaseBackoff:       v.GetDuration("executor.base_backoff"),
			MaxBackoff:        v.GetDuration("executor.max_backoff"),
			RequestsPerSecond: v.GetFloat64("executor.requests_per_second"),
			Burst:             v.GetInt("executor.burst"),
		},

		MaxShrinkage:     v.GetFloat64("guard.max_shrinkage"),
		ScheduleInterval: v.GetDuration("schedule.interval"),
		MetricsAddr:      v.GetString("metrics.addr"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

// setDefaults registers the default of every key. Registering a default also
// makes the key visible to AutomaticEnv.
func setDefaults(v *viper.Viper) {
	v.SetDefault("supplier.url", "")
	v.SetDefault("supplier.user", "")
	v.SetDefault("supplier.password", "")
	v.SetDefault("supplier.file", "")

	v.SetDefault("storefront.shop", "")
	v.SetDefault("storefront.token", "")
	v.SetDefault("storefront.api_version", "")
	v.SetDefault("storefront.vendor", constants.DefaultVendor)
	v.SetDefault("storefront.sandbox", false)

	v.SetDefault("pricing.discount_rate", "0.23")
	v.SetDefault("pricing.margin_rate", "0.6667")
	v.SetDefault("pricing.scale", constants.DefaultCurrencyScale)

	v.SetDefault("guard.max_shrinkage", constants.DefaultMaxShrinkage)

	v.SetDefault("sync.discontinued_policy", string(differ.DiscontinuedDelete))
	v.SetDefault("sync.strategy", string(differ.ApplyAll))
	v.SetDefault("sync.timeout", constants.RunTimeout)
	v.SetDefault("sync.ignored_fields", []string{})

	v.SetDefault("executor.max_attempts", constants.MaxAttempts)
	v.SetDefault("executor.base_backoff", constants.RetryBackoff)
	v.SetDefault("executor.max_backoff", constants.MaxRetryBackoff)
	v.SetDefault("executor.requests_per_second", constants.DefaultRequestsPerSecond)
	v.SetDefault("executor.burst", constants.BurstSize)

	v.SetDefault("schedule.interval", constants.DefaultScheduleInterval)
	v.SetDefault("metrics.addr", "")

	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// bindLegacyEnv lets each legacy variable feed its key when the prefixed
// variable is unset.
func bindLegacyEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if output != "" {
		c.Output = output
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win: godotenv never overrides a
// variable that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
