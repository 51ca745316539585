package catalogs

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Product is the normalized representation of one sellable item, shared by
// both sides of a reconciliation.
type Product struct {
	SKU          SKU               `json:"sku" yaml:"sku"`
	Title        string            `json:"title" yaml:"title"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	SupplierCost *decimal.Decimal  `json:"supplier_cost,omitempty" yaml:"supplier_cost,omitempty"` // supplier side only
	FinalPrice   decimal.Decimal   `json:"final_price" yaml:"final_price"`
	StorefrontID string            `json:"storefront_id,omitempty" yaml:"storefront_id,omitempty"` // storefront side only
	VariantID    string            `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`       // storefront side only
	Active       bool              `json:"active" yaml:"active"`
	Attributes   map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Images       []string          `json:"images,omitempty" yaml:"images,omitempty"`
}

// Copy returns a deep copy of the product.
func (p Product) Copy() Product {
	out := p
	if p.SupplierCost != nil {
		cost := *p.SupplierCost
		out.SupplierCost = &cost
	}
	if p.Attributes != nil {
		out.Attributes = maps.Clone(p.Attributes)
	}
	if p.Images != nil {
		out.Images = slices.Clone(p.Images)
	}
	return out
}

// HasCost reports whether a supplier cost is known.
func (p Product) HasCost() bool {
	return p.SupplierCost != nil
}
