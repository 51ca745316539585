package convert

import (
	"maps"
	"slices"
	"strings"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/sources"
)

// Storefront turns listed storefront products into one product per
// SKU-bearing variant. A variant of a multi-variant product gets a variant
// reference as its StorefrontID so that deleting it leaves its siblings alone.
func Storefront(records []sources.StorefrontRecord) Result {
	c := newCollector(sources.StorefrontID.String(), len(records))

	for i, rec := range records {
		if len(rec.Variants) == 0 {
			c.skip(i, "", ReasonNoVariants)
			continue
		}
		for _, v := range rec.Variants {
			c.add(i, storefrontProduct(rec, v))
		}
	}

	return c.result
}

func storefrontProduct(rec sources.StorefrontRecord, v sources.StorefrontVariant) catalogs.Product {
	id := rec.ID
	if len(rec.Variants) > 1 {
		id = sources.VariantRef(rec.ID, v.ID)
	}

	// An unreadable price still identifies a listed product; it is compared
	// as zero and corrected by the next update.
	price, _ := parseAmount(v.Price)

	attrs := maps.Clone(rec.Metafields)
	if attrs == nil {
		attrs = map[string]string{}
	}

	return catalogs.Product{
		SKU:          catalogs.NewSKU(v.SKU),
		Title:        rec.Title,
		Description:  rec.BodyHTML,
		FinalPrice:   price,
		StorefrontID: id,
		VariantID:    v.ID,
		Active:       strings.EqualFold(rec.Status, sources.StatusActive),
		Attributes:   attrs,
		Images:       slices.Clone(rec.Images),
	}
}
