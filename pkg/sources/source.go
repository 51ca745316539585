// Package sources defines the collaborator contracts of a reconciliation run:
// the supplier feed that describes the desired catalog and the storefront
// whose catalog is brought in line with it.
//
// Implementations live under internal/sources. Records returned here are raw:
// they carry whatever the remote side sent and are turned into
// catalogs.Product values by the normalize package.
//
// Example usage:
//
//	snap, err := supplier.ListProducts(ctx)
//	if err != nil {
//	    return errors.WrapFetch("supplier", err)
//	}
//	if !snap.Complete {
//	    // refuse to plan deletions from a partial feed
//	}
package sources

import (
	"context"
	"slices"
)

// ID represents the identifier of a catalog source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Common source names.
const (
	SupplierID   ID = "supplier"
	StorefrontID ID = "storefront"
)

// IDs returns all available source IDs.
func IDs() []ID {
	return []ID{SupplierID, StorefrontID}
}

// IsValid returns true if the ID is one of the defined constants.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// SupplierSnapshot is one full listing of the supplier feed.
type SupplierSnapshot struct {
	Records []SupplierRecord
	// Complete is false when the supplier signalled that the listing is
	// truncated or partial. Such a snapshot must never drive deletions.
	Complete bool
}

// Supplier fetches the authoritative product feed.
type Supplier interface {
	ListProducts(ctx context.Context) (SupplierSnapshot, error)
}

// Storefront is the remote catalog being reconciled.
type Storefront interface {
	// ListProducts returns every product currently listed.
	ListProducts(ctx context.Context) ([]StorefrontRecord, error)

	// CreateProduct creates a product and returns its storefront ID.
	CreateProduct(ctx context.Context, p Payload) (string, error)

	// UpdateProduct applies the non-nil fields of p to an existing product.
	UpdateProduct(ctx context.Context, id string, p Payload) error

	// DeleteProduct removes a product, or a single variant when id is a variant reference.
	DeleteProduct(ctx context.Context, id string) error
}
