package differ

import "github.com/agentstation/storesync/pkg/catalogs"

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// DiscontinuedPolicy decides what happens to a storefront product whose
// supplier entry is still present but marked inactive.
type DiscontinuedPolicy string

const (
	// DiscontinuedDelete removes the storefront product.
	DiscontinuedDelete DiscontinuedPolicy = "delete"

	// DiscontinuedDeactivate keeps the product but sets it inactive.
	DiscontinuedDeactivate DiscontinuedPolicy = "deactivate"
)

// IsValid reports whether the policy is known.
func (p DiscontinuedPolicy) IsValid() bool {
	return p == DiscontinuedDelete || p == DiscontinuedDeactivate
}

// Compared field names, usable with WithIgnoredFields.
const (
	FieldPrice       = "price"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldActive      = "active"
	FieldAttributes  = "attributes"
	FieldImages      = "images"
)

// WithDiscontinuedPolicy sets how inactive supplier products are handled.
func WithDiscontinuedPolicy(policy DiscontinuedPolicy) Option {
	return func(d *differ) {
		d.policy = policy
	}
}

// WithHeldSKUs excludes SKUs from every operation. Products whose supplier
// record could not be priced are held so that a bad cost never deletes a
// live listing.
func WithHeldSKUs(skus ...catalogs.SKU) Option {
	return func(d *differ) {
		for _, sku := range skus {
			d.held[sku] = true
		}
	}
}

// WithIgnoredFields sets fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}
