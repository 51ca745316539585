package sources

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SupplierRecord is one parent product of the supplier feed. Each variant
// becomes one sellable product.
type SupplierRecord struct {
	ParentSKU   string            `json:"skuPadre"`
	Name        string            `json:"nombrePadre"`
	Description string            `json:"descripcion"`
	Category    string            `json:"categorias"`
	Subcategory string            `json:"subCategorias"`
	Images      []string          `json:"imagenesPadre"`
	Variants    []SupplierVariant `json:"hijos"`
}

// SupplierVariant is one sellable child of a supplier record.
type SupplierVariant struct {
	SKU    string   `json:"skuHijo"`
	Price  Amount   `json:"precio"`
	Color  string   `json:"color"`
	Status string   `json:"estatus"`
	Images []string `json:"imagenesHijo"`
}

// ActiveStatus is the supplier status value of a sellable variant.
const ActiveStatus = "1"

// Amount holds a monetary value exactly as the remote side sent it. The feed
// mixes JSON strings and numbers; parsing is left to the normalizer so that a
// bad value rejects one product instead of the whole feed.
type Amount string

// UnmarshalJSON accepts a JSON string, number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	*a = Amount(data)
	return nil
}

// StorefrontRecord is one storefront product as listed by the storefront API.
type StorefrontRecord struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	BodyHTML   string              `json:"body_html"`
	Status     string              `json:"status"`
	Variants   []StorefrontVariant `json:"variants"`
	Images     []string            `json:"images"`
	Metafields map[string]string   `json:"metafields,omitempty"`
}

// StorefrontVariant is one SKU-bearing variant of a storefront product.
type StorefrontVariant struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Price Amount `json:"price"`
}

// Storefront product status values.
const (
	StatusActive = "active"
	StatusDraft  = "draft"
)

// variantSep joins a product ID and a variant ID into one storefront reference.
const variantSep = "/variants/"

// VariantRef builds the storefront reference of a single variant inside a
// multi-variant product.
func VariantRef(productID, variantID string) string {
	return productID + variantSep + variantID
}

// ParseRef splits a storefront reference into its product and variant parts.
// variantID is empty when ref names a whole product.
func ParseRef(ref string) (productID, variantID string) {
	productID, variantID, _ = strings.Cut(ref, variantSep)
	return productID, variantID
}

// IsVariantRef reports whether ref names one variant of a multi-variant
// product. Only the variant price can be written through such a reference.
func IsVariantRef(ref string) bool {
	return strings.Contains(ref, variantSep)
}
