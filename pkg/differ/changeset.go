// Package differ compares the desired catalog with the current storefront
// catalog and produces an ordered change plan.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/sources"
)

// Op is the kind of a planned storefront operation.
type Op string

const (
	// OpDelete removes a storefront product.
	OpDelete Op = "delete"
	// OpUpdate changes fields of an existing storefront product.
	OpUpdate Op = "update"
	// OpCreate creates a storefront product.
	OpCreate Op = "create"
)

// Ops returns the operation kinds in execution order.
func Ops() []Op {
	return []Op{OpDelete, OpUpdate, OpCreate}
}

// FieldChange represents a change to a specific field. Values are string
// representations of the current and desired field values.
type FieldChange struct {
	Path     string `json:"path" yaml:"path"`
	OldValue string `json:"old" yaml:"old"`
	NewValue string `json:"new" yaml:"new"`
}

// Operation is one entry of a change plan.
type Operation struct {
	Op           Op              `json:"op" yaml:"op"`
	SKU          catalogs.SKU    `json:"sku" yaml:"sku"`
	StorefrontID string          `json:"storefront_id,omitempty" yaml:"storefront_id,omitempty"`
	Payload      sources.Payload `json:"payload" yaml:"payload"`
	Changes      []FieldChange   `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Plan is the ordered list of operations that transforms the current catalog
// into the desired one: deletes first, then updates, then creates, each group
// sorted by SKU. A plan holds at most one operation per SKU.
type Plan struct {
	Operations []Operation `json:"operations" yaml:"operations"`
	Summary    Summary     `json:"summary" yaml:"summary"`
}

// Summary provides summary statistics for a plan.
type Summary struct {
	Creates int `json:"creates" yaml:"creates"`
	Updates int `json:"updates" yaml:"updates"`
	Deletes int `json:"deletes" yaml:"deletes"`
	Total   int `json:"total" yaml:"total"`
}

// newPlan concatenates the operation groups in execution order.
func newPlan(deletes, updates, creates []Operation) *Plan {
	ops := make([]Operation, 0, len(deletes)+len(updates)+len(creates))
	ops = append(ops, deletes...)
	ops = append(ops, updates...)
	ops = append(ops, creates...)
	return &Plan{
		Operations: ops,
		Summary:    calculateSummary(ops),
	}
}

// calculateSummary computes the summary for a list of operations.
func calculateSummary(ops []Operation) Summary {
	var s Summary
	for _, op := range ops {
		switch op.Op {
		case OpCreate:
			s.Creates++
		case OpUpdate:
			s.Updates++
		case OpDelete:
			s.Deletes++
		}
	}
	s.Total = s.Creates + s.Updates + s.Deletes
	return s
}

// IsEmpty returns true if the plan contains no operations.
func (p *Plan) IsEmpty() bool {
	return p.Summary.Total == 0
}

// Count returns the number of operations of the given kind.
func (p *Plan) Count(op Op) int {
	switch op {
	case OpCreate:
		return p.Summary.Creates
	case OpUpdate:
		return p.Summary.Updates
	case OpDelete:
		return p.Summary.Deletes
	}
	return 0
}

// Find returns the operation planned for sku, if any.
func (p *Plan) Find(sku catalogs.SKU) (Operation, bool) {
	for _, op := range p.Operations {
		if op.SKU == sku {
			return op, true
		}
	}
	return Operation{}, false
}

// String returns a human-readable summary of the plan.
func (p *Plan) String() string {
	if p.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if p.Summary.Deletes > 0 {
		parts = append(parts, fmt.Sprintf("%d to delete", p.Summary.Deletes))
	}
	if p.Summary.Updates > 0 {
		parts = append(parts, fmt.Sprintf("%d to update", p.Summary.Updates))
	}
	if p.Summary.Creates > 0 {
		parts = append(parts, fmt.Sprintf("%d to create", p.Summary.Creates))
	}
	return fmt.Sprintf("Plan: %s (Total: %d changes)", strings.Join(parts, ", "), p.Summary.Total)
}

// Print writes a detailed, human-readable view of the plan.
func (p *Plan) Print(w io.Writer) {
	fmt.Fprintln(w, p.String())
	if p.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, kind := range Ops() {
		n := p.Count(kind)
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s %s (%d):\n", opIcon(kind), strings.ToUpper(string(kind[:1]))+string(kind[1:]), n)
		for _, op := range p.Operations {
			if op.Op != kind {
				continue
			}
			fmt.Fprintf(w, "  • %s", op.SKU)
			if op.StorefrontID != "" {
				fmt.Fprintf(w, " (%s)", op.StorefrontID)
			}
			fmt.Fprintln(w)
			for _, change := range op.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", change.Path, change.OldValue, change.NewValue)
			}
		}
	}
}

func opIcon(op Op) string {
	switch op {
	case OpCreate:
		return "➕"
	case OpUpdate:
		return "🔄"
	default:
		return "⚠️ "
	}
}

// ApplyStrategy represents which operation kinds of a plan are applied.
type ApplyStrategy string

const (
	// ApplyAll applies all changes including removals.
	ApplyAll ApplyStrategy = "all"

	// ApplyAdditive only applies additions and updates, never removes.
	ApplyAdditive ApplyStrategy = "additive"

	// ApplyUpdatesOnly only applies updates to existing items.
	ApplyUpdatesOnly ApplyStrategy = "updates-only"

	// ApplyAdditionsOnly only applies new additions.
	ApplyAdditionsOnly ApplyStrategy = "additions-only"
)

// IsValid reports whether the strategy is known.
func (s ApplyStrategy) IsValid() bool {
	switch s {
	case ApplyAll, ApplyAdditive, ApplyUpdatesOnly, ApplyAdditionsOnly:
		return true
	}
	return false
}

// allows reports whether the strategy applies operations of the given kind.
func (s ApplyStrategy) allows(op Op) bool {
	switch s {
	case ApplyAdditive:
		return op != OpDelete
	case ApplyUpdatesOnly:
		return op == OpUpdate
	case ApplyAdditionsOnly:
		return op == OpCreate
	}
	return true
}

// Filter returns the plan narrowed to the operation kinds the strategy applies.
// Ordering is preserved.
func (p *Plan) Filter(strategy ApplyStrategy) *Plan {
	if strategy == ApplyAll || strategy == "" {
		return p
	}

	ops := make([]Operation, 0, len(p.Operations))
	for _, op := range p.Operations {
		if strategy.allows(op.Op) {
			ops = append(ops, op)
		}
	}
	return &Plan{
		Operations: ops,
		Summary:    calculateSummary(ops),
	}
}
