// Package emoji provides symbol constants for CLI output.
// These symbols give run reports and alerts a consistent visual language.
package emoji

// Status symbols.
const (
	// Success marks a completed run or a succeeded operation.
	Success = "✓"

	// Error marks a fatal run error or a failed operation.
	Error = "✗"

	// Warning marks a run that finished with per-SKU failures or a truncated budget.
	Warning = "!"

	// Info marks informational messages.
	Info = "i"

	// Skipped marks operations that were never attempted.
	Skipped = "-"
)

// Operation symbols used in plan listings.
const (
	Create = "+"
	Update = "~"
	Delete = "-"
)
