package convert_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/convert"
	"github.com/agentstation/storesync/pkg/sources"
)

func TestSupplier(t *testing.T) {
	records := []sources.SupplierRecord{
		{
			ParentSKU:   "TSR-041",
			Name:        "VASO KIRA",
			Description: "Vaso de doble pared",
			Category:    "BEBIDAS",
			Subcategory: "VASOS",
			Images:      []string{"p1.jpg", "shared.jpg"},
			Variants: []sources.SupplierVariant{
				{SKU: " tsr-041-plata ", Price: "100.00", Color: "PLATA", Status: "1", Images: []string{"shared.jpg", "c1.jpg"}},
				{SKU: "TSR-041-ORO", Price: "1,250.50", Color: "ORO", Status: "0"},
				{SKU: "TSR-041-NEGRO", Price: "n/a", Status: "1"},
			},
		},
		{ParentSKU: "EMPTY"},
		{
			ParentSKU: "DUP",
			Variants: []sources.SupplierVariant{
				{SKU: "TSR-041-PLATA", Price: "1", Status: "1"},
				{SKU: "  ", Price: "1", Status: "1"},
			},
		},
	}

	res := convert.Supplier(records)

	require.Len(t, res.Products, 3)
	plata := res.Products[0]
	assert.Equal(t, catalogs.SKU("TSR-041-PLATA"), plata.SKU)
	assert.Equal(t, "VASO KIRA - PLATA", plata.Title)
	assert.Equal(t, "Vaso de doble pared", plata.Description)
	require.NotNil(t, plata.SupplierCost)
	assert.True(t, plata.SupplierCost.Equal(decimal.NewFromInt(100)))
	assert.True(t, plata.Active)
	assert.Equal(t, []string{"p1.jpg", "shared.jpg", "c1.jpg"}, plata.Images)
	assert.Equal(t, map[string]string{
		"parent_sku":  "TSR-041",
		"color":       "PLATA",
		"category":    "BEBIDAS",
		"subcategory": "VASOS",
	}, plata.Attributes)

	oro := res.Products[1]
	assert.False(t, oro.Active)
	assert.True(t, oro.SupplierCost.Equal(decimal.RequireFromString("1250.50")))

	negro := res.Products[2]
	assert.Nil(t, negro.SupplierCost, "unparseable cost is left for pricing to reject")
	assert.Equal(t, "VASO KIRA", negro.Title)

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, convert.ReasonNoVariants, res.Skipped[0].Reason)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, convert.ReasonDuplicateSKU, res.Skipped[1].Reason)
	assert.Equal(t, catalogs.SKU("TSR-041-PLATA"), res.Skipped[1].SKU)
	assert.Equal(t, convert.ReasonMissingSKU, res.Skipped[2].Reason)
	assert.Equal(t, "supplier", res.Skipped[2].Source)
}

func TestStorefront(t *testing.T) {
	records := []sources.StorefrontRecord{
		{
			ID:         "100",
			Title:      "VASO KIRA - PLATA",
			BodyHTML:   "Vaso de doble pared",
			Status:     "active",
			Variants:   []sources.StorefrontVariant{{ID: "1000", SKU: "tsr-041-plata", Price: "128.33"}},
			Images:     []string{"p1.jpg"},
			Metafields: map[string]string{"color": "PLATA"},
		},
		{
			ID:     "200",
			Title:  "Legacy",
			Status: "draft",
			Variants: []sources.StorefrontVariant{
				{ID: "2001", SKU: "L-1", Price: "bad"},
				{ID: "2002", SKU: "L-2", Price: "3"},
				{ID: "2003", SKU: ""},
			},
		},
		{ID: "300", Title: "No variants"},
	}

	res := convert.Storefront(records)

	require.Len(t, res.Products, 3)
	first := res.Products[0]
	assert.Equal(t, catalogs.SKU("TSR-041-PLATA"), first.SKU)
	assert.Equal(t, "100", first.StorefrontID)
	assert.Equal(t, "1000", first.VariantID)
	assert.True(t, first.Active)
	assert.True(t, first.FinalPrice.Equal(decimal.RequireFromString("128.33")))
	assert.Equal(t, "PLATA", first.Attributes["color"])
	assert.Nil(t, first.SupplierCost)

	legacy := res.Products[1]
	assert.Equal(t, sources.VariantRef("200", "2001"), legacy.StorefrontID)
	assert.False(t, legacy.Active)
	assert.True(t, legacy.FinalPrice.IsZero())
	assert.NotNil(t, legacy.Attributes)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, convert.ReasonMissingSKU, res.Skipped[0].Reason)
	assert.Equal(t, convert.ReasonNoVariants, res.Skipped[1].Reason)
	assert.Equal(t, 2, res.Skipped[1].Index)
}

func TestNormalizersAgreeOnKeys(t *testing.T) {
	supplier := convert.Supplier([]sources.SupplierRecord{{
		Variants: []sources.SupplierVariant{{SKU: "abc-1 ", Price: "1", Status: "1"}},
	}})
	storefront := convert.Storefront([]sources.StorefrontRecord{{
		ID:       "1",
		Variants: []sources.StorefrontVariant{{ID: "1", SKU: "ABC-1"}},
	}})

	require.Len(t, supplier.Products, 1)
	require.Len(t, storefront.Products, 1)
	assert.Equal(t, supplier.Products[0].SKU, storefront.Products[0].SKU)
}
