// Package constants provides shared constants used throughout the storesync codebase.
// This includes timeouts, retry and pacing limits, and the defaults applied when
// a configuration value is left unset.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single HTTP call to the supplier or storefront
	DefaultHTTPTimeout = 30 * time.Second

	// SupplierFetchTimeout bounds the full supplier snapshot download
	SupplierFetchTimeout = 5 * time.Minute

	// RunTimeout is the default budget for one complete reconciliation run
	RunTimeout = 30 * time.Minute

	// DefaultScheduleInterval is the default interval between scheduled runs
	DefaultScheduleInterval = 1 * time.Hour

	// ShutdownTimeout bounds the graceful shutdown of the CLI and metrics server
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Retry and pacing constants
const (
	// MaxAttempts is the number of tries per storefront operation, first call included
	MaxAttempts = 4

	// DefaultRequestsPerSecond is the storefront write pace
	DefaultRequestsPerSecond = 2.0

	// BurstSize is the token bucket burst size for the storefront pacer
	BurstSize = 1
)

// Reconciliation defaults
const (
	// DefaultMaxShrinkage is the largest fraction of the current catalog a run may remove
	DefaultMaxShrinkage = 0.5

	// DefaultCurrencyScale is the number of decimal places in the minimum currency unit
	DefaultCurrencyScale = 2

	// MaxCurrencyScale is the most decimal places a storefront price can hold
	MaxCurrencyScale = 2

	// StorefrontPageSize is the page size used when listing storefront products
	StorefrontPageSize = 250

	// DefaultVendor is the vendor name written on created storefront products
	DefaultVendor = "PromoOpción"

	// MetafieldNamespace holds pass-through attributes on storefront products
	MetafieldNamespace = "storesync"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
