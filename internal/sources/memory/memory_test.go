package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync/internal/sources/memory"
	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/convert"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/sources"
)

func product(sku, price string) catalogs.Product {
	return catalogs.Product{
		SKU:        catalogs.SKU(sku),
		Title:      "Product " + sku,
		FinalPrice: decimal.RequireFromString(price),
		Active:     true,
		Attributes: map[string]string{"color": "red"},
	}
}

func TestStorefrontLifecycle(t *testing.T) {
	ctx := context.Background()
	sf := memory.New(memory.WithProducts(product("A", "10")))

	id, err := sf.CreateProduct(ctx, sources.FullPayload(product("B", "13.5")))
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	price := decimal.RequireFromString("11")
	inactive := false
	require.NoError(t, sf.UpdateProduct(ctx, "1", sources.Payload{SKU: "A", Price: &price, Active: &inactive}))

	records, err := sf.ListProducts(ctx)
	require.NoError(t, err)
	products := convert.Storefront(records).Products
	require.Len(t, products, 2)
	assert.Equal(t, "11.00", products[0].FinalPrice.StringFixed(2))
	assert.False(t, products[0].Active)
	assert.Equal(t, "13.50", products[1].FinalPrice.StringFixed(2))
	assert.Equal(t, "red", products[1].Attributes["color"])

	require.NoError(t, sf.DeleteProduct(ctx, "1"))
	assert.Equal(t, 1, sf.Len())

	err = sf.DeleteProduct(ctx, "1")
	assert.True(t, errors.IsNotFound(err))

	calls := sf.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, "create B", calls[0].String())
	assert.Equal(t, "update A", calls[1].String())
	assert.Equal(t, memory.MethodDelete, calls[4].Method)
}

func TestStorefrontVariants(t *testing.T) {
	ctx := context.Background()
	sf := memory.New(memory.WithRecords(sources.StorefrontRecord{
		ID:     "7",
		Title:  "Mug",
		Status: sources.StatusActive,
		Variants: []sources.StorefrontVariant{
			{ID: "70", SKU: "MUG-RED", Price: "5.00"},
			{ID: "71", SKU: "MUG-BLUE", Price: "5.00"},
		},
	}))

	price := decimal.RequireFromString("6")
	title := "Mug - Blue"
	err := sf.UpdateProduct(ctx, sources.VariantRef("7", "71"), sources.Payload{Price: &price, Title: &title})
	assert.True(t, errors.IsValidationError(err), "shared fields cannot be written through a variant")
	require.NoError(t, sf.UpdateProduct(ctx, sources.VariantRef("7", "71"), sources.Payload{Price: &price}))
	require.NoError(t, sf.DeleteProduct(ctx, sources.VariantRef("7", "70")))

	records, err := sf.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Variants, 1)
	assert.Equal(t, "MUG-BLUE", records[0].Variants[0].SKU)
	assert.Equal(t, sources.Amount("6.00"), records[0].Variants[0].Price)
	assert.Equal(t, "Mug", records[0].Title)

	id, err := sf.CreateProduct(ctx, sources.FullPayload(product("NEW", "1")))
	require.NoError(t, err)
	assert.Equal(t, "8", id, "IDs continue after seeded records")
}

func TestStorefrontFaults(t *testing.T) {
	ctx := context.Background()
	sf := memory.New()
	unavailable := errors.NewAPIError("memory", 503, "unavailable")

	sf.Fail(memory.MethodCreate, "A", unavailable, 1)
	_, err := sf.CreateProduct(ctx, sources.FullPayload(product("A", "1")))
	assert.True(t, errors.IsTransient(err))
	_, err = sf.CreateProduct(ctx, sources.FullPayload(product("A", "1")))
	assert.NoError(t, err, "fault is consumed")

	sf.FailList(unavailable, -1)
	for range 3 {
		_, err = sf.ListProducts(ctx)
		assert.Error(t, err)
	}

	_, err = sf.CreateProduct(ctx, sources.Payload{})
	assert.True(t, errors.IsValidationError(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, sf.DeleteProduct(canceled, "1"), context.Canceled)
}

func TestSupplier(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSupplier(sources.SupplierRecord{ParentSKU: "P"})

	snap, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Complete)
	assert.Len(t, snap.Records, 1)

	s.SetComplete(false)
	snap, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Complete)

	s.SetError(errors.NewFetchError("supplier", "down", nil))
	_, err = s.ListProducts(ctx)
	assert.True(t, errors.IsFetchError(err))
	assert.Equal(t, 3, s.Calls())
}
