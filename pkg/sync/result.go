package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/differ"
	"github.com/agentstation/storesync/pkg/errors"
)

// State is the lifecycle position of one planned operation.
type State string

// Operation states.
const (
	StatePending      State = "pending"
	StateRetrying     State = "retrying"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateNotAttempted State = "not_attempted"
)

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateNotAttempted
}

// Outcome is the final state of one planned operation.
type Outcome struct {
	SKU          catalogs.SKU `json:"sku" yaml:"sku"`
	Op           differ.Op    `json:"op" yaml:"op"`
	StorefrontID string       `json:"storefront_id,omitempty" yaml:"storefront_id,omitempty"`
	State        State        `json:"state" yaml:"state"`
	Attempts     int          `json:"attempts" yaml:"attempts"`
	ErrorKind    errors.Kind  `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message      string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Skip records an input that never reached the diff.
type Skip struct {
	Source string       `json:"source" yaml:"source"`
	Index  int          `json:"index" yaml:"index"`
	SKU    catalogs.SKU `json:"sku,omitempty" yaml:"sku,omitempty"`
	Reason string       `json:"reason" yaml:"reason"`
}

// Counts tallies operations of one kind.
type Counts struct {
	Planned      int `json:"planned" yaml:"planned"`
	Attempted    int `json:"attempted" yaml:"attempted"`
	Succeeded    int `json:"succeeded" yaml:"succeeded"`
	Failed       int `json:"failed" yaml:"failed"`
	NotAttempted int `json:"not_attempted" yaml:"not_attempted"`
}

func (c *Counts) add(o Counts) {
	c.Planned += o.Planned
	c.Attempted += o.Attempted
	c.Succeeded += o.Succeeded
	c.Failed += o.Failed
	c.NotAttempted += o.NotAttempted
}

// Fatal describes the error that aborted a run.
type Fatal struct {
	Kind    errors.Kind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
}

// Result is the report of one reconciliation run. It is created empty when the
// run starts, filled by the executor and the run controller, and never read
// back by a later run.
type Result struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	DryRun     bool                 `json:"dry_run" yaml:"dry_run"`
	Truncated  bool                 `json:"truncated,omitempty" yaml:"truncated,omitempty"` // run budget ran out
	Supplied   int                  `json:"supplied" yaml:"supplied"`                       // normalized supplier products
	Listed     int                  `json:"listed" yaml:"listed"`                           // normalized storefront products
	ByOp       map[differ.Op]Counts `json:"by_op" yaml:"by_op"`
	Failures   []Outcome            `json:"failures,omitempty" yaml:"failures,omitempty"`
	Skipped    []Skip               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Fatal      *Fatal               `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

// NewResult starts an empty report with a fresh run ID.
func NewResult(startedAt time.Time) *Result {
	byOp := make(map[differ.Op]Counts, 3)
	for _, op := range differ.Ops() {
		byOp[op] = Counts{}
	}
	return &Result{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		ByOp:      byOp,
	}
}

// AddPlanned counts n planned operations of the given kind.
func (r *Result) AddPlanned(op differ.Op, n int) {
	c := r.ByOp[op]
	c.Planned += n
	r.ByOp[op] = c
}

// AddPlan counts every operation of a plan as planned.
func (r *Result) AddPlan(p *differ.Plan) {
	for _, op := range differ.Ops() {
		r.AddPlanned(op, p.Count(op))
	}
}

// Record adds a terminal outcome.
func (r *Result) Record(o Outcome) {
	c := r.ByOp[o.Op]
	switch o.State {
	case StateSucceeded:
		c.Attempted++
		c.Succeeded++
	case StateFailed:
		c.Attempted++
		c.Failed++
		r.Failures = append(r.Failures, o)
	case StateNotAttempted:
		c.NotAttempted++
	}
	r.ByOp[o.Op] = c
}

// AddSkipped appends skipped inputs.
func (r *Result) AddSkipped(skips ...Skip) {
	r.Skipped = append(r.Skipped, skips...)
}

// SetFatal records the error that aborted the run.
func (r *Result) SetFatal(err error) {
	if err == nil {
		return
	}
	r.Fatal = &Fatal{Kind: errors.Classify(err), Message: err.Error()}
}

// Finish stamps the end time.
func (r *Result) Finish(at time.Time) {
	r.FinishedAt = at
}

// Duration returns the run wall time, zero while the run is in progress.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals sums the counts of every operation kind.
func (r *Result) Totals() Counts {
	var total Counts
	for _, c := range r.ByOp {
		total.add(c)
	}
	return total
}

// HasChanges returns true if the run planned any operation.
func (r *Result) HasChanges() bool {
	return r.Totals().Planned > 0
}

// OK reports whether the run finished without a fatal error.
func (r *Result) OK() bool {
	return r.Fatal == nil
}

// Process exit codes.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitConfig = 2
	ExitGuard  = 3
	ExitAuth   = 4
	ExitFetch  = 5
)

// ExitCode maps the run outcome to a process exit status. Per-SKU failures do
// not make a run fail.
func (r *Result) ExitCode() int {
	if r.Fatal == nil {
		return ExitOK
	}
	switch r.Fatal.Kind {
	case errors.KindConfiguration:
		return ExitConfig
	case errors.KindGuardTripped:
		return ExitGuard
	case errors.KindAuth:
		return ExitAuth
	case errors.KindFetch:
		return ExitFetch
	}
	return ExitError
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	var parts []string
	for _, op := range differ.Ops() {
		c := r.ByOp[op]
		parts = append(parts, fmt.Sprintf("%s %d/%d", op, c.Succeeded, c.Planned))
	}
	total := r.Totals()

	summary := fmt.Sprintf("run %s: %s; %d failed, %d not attempted, %d skipped",
		r.RunID, strings.Join(parts, ", "), total.Failed, total.NotAttempted, len(r.Skipped))

	var flags []string
	if r.DryRun {
		flags = append(flags, "(Dry run)")
	}
	if r.Truncated {
		flags = append(flags, "(Budget exceeded)")
	}
	if r.Fatal != nil {
		flags = append(flags, fmt.Sprintf("(Aborted: %s)", r.Fatal.Kind))
	}
	if len(flags) > 0 {
		summary += " " + strings.Join(flags, " ")
	}
	return summary
}
