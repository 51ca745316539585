package convert

import (
	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/sync"
)

// Skip reasons.
const (
	ReasonMissingSKU   = "missing sku"
	ReasonDuplicateSKU = "duplicate sku"
	ReasonNoVariants   = "no variants"
)

// Result holds normalized products and the inputs that were dropped.
type Result struct {
	Products []catalogs.Product
	Skipped  []sync.Skip
}

// collector enforces SKU presence and uniqueness on one side of a run.
type collector struct {
	source string
	seen   map[catalogs.SKU]bool
	result Result
}

func newCollector(source string, capacity int) *collector {
	return &collector{
		source: source,
		seen:   make(map[catalogs.SKU]bool, capacity),
		result: Result{Products: make([]catalogs.Product, 0, capacity)},
	}
}

func (c *collector) skip(index int, sku catalogs.SKU, reason string) {
	c.result.Skipped = append(c.result.Skipped, sync.Skip{
		Source: c.source,
		Index:  index,
		SKU:    sku,
		Reason: reason,
	})
}

// add keeps the first product seen for a SKU and skips later ones.
func (c *collector) add(index int, p catalogs.Product) {
	switch {
	case p.SKU.IsZero():
		c.skip(index, "", ReasonMissingSKU)
	case c.seen[p.SKU]:
		c.skip(index, p.SKU, ReasonDuplicateSKU)
	default:
		c.seen[p.SKU] = true
		c.result.Products = append(c.result.Products, p)
	}
}
