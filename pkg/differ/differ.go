package differ

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/sources"
)

// Differ handles change detection between the desired and current catalogs.
type Differ interface {
	// Diff compares desired (priced supplier products) with current
	// (storefront products) and returns the change plan. It is pure and
	// deterministic: the same inputs always produce the same plan.
	Diff(desired, current []catalogs.Product) *Plan
}

// differ is the default implementation of Differ.
type differ struct {
	policy       DiscontinuedPolicy
	held         map[catalogs.SKU]bool
	ignoreFields map[string]bool
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		policy:       DiscontinuedDelete,
		held:         make(map[catalogs.SKU]bool),
		ignoreFields: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Diff compares two catalogs and returns the change plan.
func (diff *differ) Diff(desired, current []catalogs.Product) *Plan {
	wanted := catalogs.FromList(desired)
	listed := catalogs.FromList(current)

	var creates, updates, deletes []Operation

	for _, want := range wanted.List() {
		if diff.held[want.SKU] {
			continue
		}

		have, exists := listed.Get(want.SKU)
		switch {
		case !exists:
			if want.Active {
				creates = append(creates, Operation{
					Op:      OpCreate,
					SKU:     want.SKU,
					Payload: sources.FullPayload(want),
				})
			}

		case !want.Active:
			if op, ok := diff.discontinued(have); ok {
				if op.Op == OpDelete {
					deletes = append(deletes, op)
				} else {
					updates = append(updates, op)
				}
			}

		default:
			if op, ok := diff.product(have, want); ok {
				updates = append(updates, op)
			}
		}
	}

	for _, have := range listed.List() {
		if diff.held[have.SKU] {
			continue
		}
		if !wanted.Exists(have.SKU) {
			deletes = append(deletes, deleteOp(have))
		}
	}

	sortBySKU(deletes)
	sortBySKU(updates)
	sortBySKU(creates)

	return newPlan(deletes, updates, creates)
}

// discontinued plans the operation for a listed product whose supplier entry is inactive.
func (diff *differ) discontinued(have catalogs.Product) (Operation, bool) {
	if diff.policy != DiscontinuedDeactivate {
		return deleteOp(have), true
	}
	if !have.Active {
		return Operation{}, false
	}
	// Status is shared by every variant of a product, so a single variant
	// is taken off the storefront instead.
	if sources.IsVariantRef(have.StorefrontID) {
		return deleteOp(have), true
	}
	inactive := false
	return Operation{
		Op:           OpUpdate,
		SKU:          have.SKU,
		StorefrontID: have.StorefrontID,
		Payload: sources.Payload{
			SKU:       have.SKU,
			VariantID: have.VariantID,
			Active:    &inactive,
		},
		Changes: []FieldChange{{Path: FieldActive, OldValue: "true", NewValue: "false"}},
	}, true
}

// product compares one listed product with its desired state and returns an
// update carrying only the differing fields. A variant of a multi-variant
// product is compared on its price alone: every other field is shared with
// its siblings and cannot be written through the variant.
func (diff *differ) product(have, want catalogs.Product) (Operation, bool) {
	payload := sources.Payload{SKU: want.SKU, VariantID: have.VariantID}
	var changes []FieldChange

	if !diff.ignoreFields[FieldPrice] && !have.FinalPrice.Equal(want.FinalPrice) {
		price := want.FinalPrice
		payload.Price = &price
		changes = append(changes, FieldChange{
			Path:     FieldPrice,
			OldValue: have.FinalPrice.StringFixed(2),
			NewValue: want.FinalPrice.StringFixed(2),
		})
	}

	if sources.IsVariantRef(have.StorefrontID) {
		return update(want.SKU, have.StorefrontID, payload, changes)
	}

	if !diff.ignoreFields[FieldTitle] && have.Title != want.Title {
		title := want.Title
		payload.Title = &title
		changes = append(changes, FieldChange{Path: FieldTitle, OldValue: have.Title, NewValue: want.Title})
	}

	if !diff.ignoreFields[FieldDescription] && have.Description != want.Description {
		description := want.Description
		payload.Description = &description
		changes = append(changes, FieldChange{
			Path:     FieldDescription,
			OldValue: truncate(have.Description),
			NewValue: truncate(want.Description),
		})
	}

	if !diff.ignoreFields[FieldActive] && have.Active != want.Active {
		active := want.Active
		payload.Active = &active
		changes = append(changes, FieldChange{
			Path:     FieldActive,
			OldValue: boolString(have.Active),
			NewValue: boolString(want.Active),
		})
	}

	if !diff.ignoreFields[FieldAttributes] && !attributesEqual(have.Attributes, want.Attributes) {
		payload.Attributes = maps.Clone(want.Attributes)
		if payload.Attributes == nil {
			payload.Attributes = map[string]string{}
		}
		changes = append(changes, FieldChange{
			Path:     FieldAttributes,
			OldValue: formatAttributes(have.Attributes),
			NewValue: formatAttributes(want.Attributes),
		})
	}

	if !diff.ignoreFields[FieldImages] && !slices.Equal(have.Images, want.Images) {
		payload.Images = slices.Clone(want.Images)
		if payload.Images == nil {
			payload.Images = []string{}
		}
		changes = append(changes, FieldChange{
			Path:     FieldImages,
			OldValue: strings.Join(have.Images, ", "),
			NewValue: strings.Join(want.Images, ", "),
		})
	}

	return update(want.SKU, have.StorefrontID, payload, changes)
}

// update builds an update operation, or reports false when nothing changed.
func update(sku catalogs.SKU, id string, payload sources.Payload, changes []FieldChange) (Operation, bool) {
	if len(changes) == 0 {
		return Operation{}, false
	}
	return Operation{
		Op:           OpUpdate,
		SKU:          sku,
		StorefrontID: id,
		Payload:      payload,
		Changes:      changes,
	}, true
}

func deleteOp(have catalogs.Product) Operation {
	return Operation{
		Op:           OpDelete,
		SKU:          have.SKU,
		StorefrontID: have.StorefrontID,
		Payload:      sources.Payload{SKU: have.SKU, VariantID: have.VariantID},
	}
}

// attributesEqual treats nil and empty maps as equal.
func attributesEqual(a, b map[string]string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return maps.Equal(a, b)
}

func formatAttributes(attrs map[string]string) string {
	keys := slices.Sorted(maps.Keys(attrs))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, ", ")
}

func truncate(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// sortBySKU sorts operations for consistent output.
func sortBySKU(ops []Operation) {
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].SKU < ops[j].SKU
	})
}
