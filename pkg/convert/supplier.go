package convert

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/sources"
)

// Attribute keys carried from the supplier feed to the storefront.
const (
	AttrParentSKU   = "parent_sku"
	AttrColor       = "color"
	AttrCategory    = "category"
	AttrSubcategory = "subcategory"
)

// Supplier flattens supplier records into one product per variant.
func Supplier(records []sources.SupplierRecord) Result {
	c := newCollector(sources.SupplierID.String(), len(records))

	for i, rec := range records {
		if len(rec.Variants) == 0 {
			c.skip(i, catalogs.NewSKU(rec.ParentSKU), ReasonNoVariants)
			continue
		}
		for _, v := range rec.Variants {
			c.add(i, supplierProduct(rec, v))
		}
	}

	return c.result
}

func supplierProduct(rec sources.SupplierRecord, v sources.SupplierVariant) catalogs.Product {
	title := strings.TrimSpace(rec.Name)
	color := strings.TrimSpace(v.Color)
	if color != "" {
		title += " - " + color
	}

	attrs := make(map[string]string, 4)
	setAttr(attrs, AttrParentSKU, rec.ParentSKU)
	setAttr(attrs, AttrColor, color)
	setAttr(attrs, AttrCategory, rec.Category)
	setAttr(attrs, AttrSubcategory, rec.Subcategory)

	return catalogs.Product{
		SKU:          catalogs.NewSKU(v.SKU),
		Title:        title,
		Description:  rec.Description,
		SupplierCost: parseCost(v.Price),
		Active:       strings.TrimSpace(v.Status) == sources.ActiveStatus,
		Attributes:   attrs,
		Images:       uniqueImages(rec.Images, v.Images),
	}
}

// parseCost returns nil when the amount is missing or unparseable; the
// pricing engine rejects such products.
func parseCost(a sources.Amount) *decimal.Decimal {
	d, ok := parseAmount(a)
	if !ok {
		return nil
	}
	return &d
}

func parseAmount(a sources.Amount) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(string(a)), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func setAttr(attrs map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		attrs[key] = value
	}
}

// uniqueImages concatenates image lists, dropping blanks and repeats while
// keeping first-seen order.
func uniqueImages(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, img := range list {
			img = strings.TrimSpace(img)
			if img == "" || seen[img] {
				continue
			}
			seen[img] = true
			out = append(out, img)
		}
	}
	return out
}
