package sources

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storesync/pkg/catalogs"
)

// Payload carries the fields written by a create or update. Nil fields are
// left untouched by an update; a create always carries every field.
type Payload struct {
	SKU         catalogs.SKU      `json:"sku" yaml:"sku"`
	VariantID   string            `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`
	Title       *string           `json:"title,omitempty" yaml:"title,omitempty"`
	Description *string           `json:"description,omitempty" yaml:"description,omitempty"`
	Price       *decimal.Decimal  `json:"price,omitempty" yaml:"price,omitempty"`
	Active      *bool             `json:"active,omitempty" yaml:"active,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Images      []string          `json:"images,omitempty" yaml:"images,omitempty"`
}

// FullPayload builds a create payload from a desired product.
func FullPayload(p catalogs.Product) Payload {
	title := p.Title
	description := p.Description
	price := p.FinalPrice
	active := p.Active
	attrs := maps.Clone(p.Attributes)
	if attrs == nil {
		attrs = map[string]string{}
	}
	images := slices.Clone(p.Images)
	if images == nil {
		images = []string{}
	}
	return Payload{
		SKU:         p.SKU,
		Title:       &title,
		Description: &description,
		Price:       &price,
		Active:      &active,
		Attributes:  attrs,
		Images:      images,
	}
}

// IsEmpty reports whether the payload changes nothing.
func (p Payload) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.Active == nil && p.Attributes == nil && p.Images == nil
}

// WritesProductFields reports whether the payload changes a field stored on
// the product rather than on its variant. Every field but the price is
// shared by the variants of a product.
func (p Payload) WritesProductFields() bool {
	return p.Title != nil || p.Description != nil || p.Active != nil ||
		p.Attributes != nil || p.Images != nil
}

// ApplyTo writes the non-nil fields of the payload onto product.
func (p Payload) ApplyTo(product *catalogs.Product) {
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.FinalPrice = *p.Price
	}
	if p.Active != nil {
		product.Active = *p.Active
	}
	if p.Attributes != nil {
		product.Attributes = maps.Clone(p.Attributes)
	}
	if p.Images != nil {
		product.Images = slices.Clone(p.Images)
	}
}
