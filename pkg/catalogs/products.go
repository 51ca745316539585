package catalogs

import (
	"fmt"
	"slices"
	"sync"
)

// Products is a concurrent safe set of products keyed by SKU.
type Products struct {
	mu       sync.RWMutex
	products map[SKU]Product
}

// ProductsOption defines a function that configures a Products instance.
type ProductsOption func(*Products)

// WithProductsCapacity sets the initial capacity of the products map.
func WithProductsCapacity(capacity int) ProductsOption {
	return func(p *Products) {
		p.products = make(map[SKU]Product, capacity)
	}
}

// NewProducts creates a new Products set with optional configuration.
func NewProducts(opts ...ProductsOption) *Products {
	p := &Products{
		products: make(map[SKU]Product),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromList builds a Products set from a list. Later entries win on duplicate SKUs.
func FromList(list []Product) *Products {
	p := NewProducts(WithProductsCapacity(len(list)))
	for _, product := range list {
		p.products[product.SKU] = product
	}
	return p
}

// Get returns a product by SKU and whether it exists.
func (p *Products) Get(sku SKU) (Product, bool) {
	p.mu.RLock()
	product, ok := p.products[sku]
	p.mu.RUnlock()
	return product, ok
}

// Add adds a product, returning an error if the SKU is empty or already present.
func (p *Products) Add(product Product) error {
	if product.SKU.IsZero() {
		return fmt.Errorf("product SKU cannot be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.products[product.SKU]; exists {
		return fmt.Errorf("product with SKU %s already exists", product.SKU)
	}
	p.products[product.SKU] = product
	return nil
}

// Set inserts or replaces a product.
func (p *Products) Set(product Product) {
	p.mu.Lock()
	p.products[product.SKU] = product
	p.mu.Unlock()
}

// Delete removes a product by SKU.
func (p *Products) Delete(sku SKU) {
	p.mu.Lock()
	delete(p.products, sku)
	p.mu.Unlock()
}

// Exists checks if a product exists without returning it.
func (p *Products) Exists(sku SKU) bool {
	p.mu.RLock()
	_, exists := p.products[sku]
	p.mu.RUnlock()
	return exists
}

// Len returns the number of products.
func (p *Products) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.products)
}

// CountActive returns the number of active products.
func (p *Products) CountActive() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, product := range p.products {
		if product.Active {
			n++
		}
	}
	return n
}

// List returns all products sorted by SKU.
func (p *Products) List() []Product {
	p.mu.RLock()
	list := make([]Product, 0, len(p.products))
	for _, product := range p.products {
		list = append(list, product)
	}
	p.mu.RUnlock()

	slices.SortFunc(list, func(a, b Product) int {
		switch {
		case a.SKU < b.SKU:
			return -1
		case a.SKU > b.SKU:
			return 1
		}
		return 0
	})
	return list
}

// SKUs returns all SKUs in ascending order.
func (p *Products) SKUs() []SKU {
	p.mu.RLock()
	skus := make([]SKU, 0, len(p.products))
	for sku := range p.products {
		skus = append(skus, sku)
	}
	p.mu.RUnlock()
	slices.Sort(skus)
	return skus
}
