// Package memory provides an in-memory storefront for tests and sandbox runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/sources"
)

const service = "memory"

// Storefront method names, used by faults and the call log.
const (
	MethodList   = "list"
	MethodCreate = "create"
	MethodUpdate = "update"
	MethodDelete = "delete"
)

// Call is one entry of the call log.
type Call struct {
	Method string
	ID     string
	SKU    catalogs.SKU
}

// String returns "method SKU".
func (c Call) String() string {
	return c.Method + " " + c.SKU.String()
}

// fault makes matching calls fail.
type fault struct {
	method string // empty matches every method
	sku    catalogs.SKU
	err    error
	times  int // remaining failures, negative means forever
}

// Storefront is an in-memory sources.Storefront. IDs are assigned in
// creation order, so runs over the same inputs are reproducible.
type Storefront struct {
	mu       sync.Mutex
	products map[int]*sources.StorefrontRecord
	nextID   int
	faults   []*fault
	calls    []Call
}

var _ sources.Storefront = (*Storefront)(nil)

// Option configures a Storefront.
type Option func(*Storefront)

// WithProducts seeds the storefront with one single-variant product per entry.
func WithProducts(products ...catalogs.Product) Option {
	return func(s *Storefront) {
		for _, p := range products {
			s.insert(sources.FullPayload(p))
		}
	}
}

// WithRecords seeds the storefront with raw records, keeping their IDs.
func WithRecords(records ...sources.StorefrontRecord) Option {
	return func(s *Storefront) {
		for _, rec := range records {
			id, err := strconv.Atoi(rec.ID)
			if err != nil {
				id = s.nextID + 1
				rec.ID = strconv.Itoa(id)
			}
			r := rec
			s.products[id] = &r
			s.nextID = max(s.nextID, id)
		}
	}
}

// New creates a Storefront.
func New(opts ...Option) *Storefront {
	s := &Storefront{products: make(map[int]*sources.StorefrontRecord)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fail makes the next times calls of method touching sku return err. An empty
// method matches every method; a negative times fails forever.
func (s *Storefront) Fail(method string, sku catalogs.SKU, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &fault{method: method, sku: sku, err: err, times: times})
}

// FailList makes the next times listings fail with err.
func (s *Storefront) FailList(err error, times int) {
	s.Fail(MethodList, "", err, times)
}

// Calls returns a copy of the call log.
func (s *Storefront) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Len returns the number of listed products.
func (s *Storefront) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// ListProducts implements sources.Storefront.
func (s *Storefront) ListProducts(ctx context.Context) ([]sources.StorefrontRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.call(MethodList, "", ""); err != nil {
		return nil, err
	}

	ids := slices.Sorted(maps.Keys(s.products))
	out := make([]sources.StorefrontRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRecord(*s.products[id]))
	}
	return out, nil
}

// CreateProduct implements sources.Storefront.
func (s *Storefront) CreateProduct(ctx context.Context, p sources.Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.call(MethodCreate, "", p.SKU); err != nil {
		return "", err
	}
	if p.SKU.IsZero() {
		return "", errors.NewAPIError(service, 422, "sku can't be blank")
	}
	return s.insert(p), nil
}

// UpdateProduct implements sources.Storefront. Like the storefront API, a
// variant reference accepts only a price.
func (s *Storefront) UpdateProduct(ctx context.Context, id string, p sources.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, variant, err := s.lookup(id)
	if err != nil {
		_ = s.call(MethodUpdate, id, p.SKU)
		return err
	}
	if err := s.call(MethodUpdate, id, catalogs.NewSKU(rec.Variants[variant].SKU)); err != nil {
		return err
	}
	if sources.IsVariantRef(id) && p.WritesProductFields() {
		return errors.NewValidationError("id", id, "only the price of a shared product variant can be updated")
	}

	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Description != nil {
		rec.BodyHTML = *p.Description
	}
	if p.Price != nil {
		rec.Variants[variant].Price = sources.Amount(p.Price.StringFixed(2))
	}
	if p.Active != nil {
		rec.Status = status(*p.Active)
	}
	if p.Attributes != nil {
		rec.Metafields = maps.Clone(p.Attributes)
	}
	if p.Images != nil {
		rec.Images = slices.Clone(p.Images)
	}
	return nil
}

// DeleteProduct implements sources.Storefront. A variant reference removes
// one variant, and the product with its last variant.
func (s *Storefront) DeleteProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, variant, err := s.lookup(id)
	if err != nil {
		_ = s.call(MethodDelete, id, "")
		return err
	}
	if err := s.call(MethodDelete, id, catalogs.NewSKU(rec.Variants[variant].SKU)); err != nil {
		return err
	}

	productID, variantID := sources.ParseRef(id)
	key, _ := strconv.Atoi(productID)
	if variantID == "" || len(rec.Variants) == 1 {
		delete(s.products, key)
		return nil
	}
	rec.Variants = slices.Delete(rec.Variants, variant, variant+1)
	return nil
}

// call logs a call and returns the first matching fault.
func (s *Storefront) call(method, id string, sku catalogs.SKU) error {
	s.calls = append(s.calls, Call{Method: method, ID: id, SKU: sku})

	for _, f := range s.faults {
		if f.times == 0 || (f.method != "" && f.method != method) || f.sku != sku {
			continue
		}
		if f.times > 0 {
			f.times--
		}
		return f.err
	}
	return nil
}

// lookup resolves a storefront reference to a product and variant index.
func (s *Storefront) lookup(ref string) (*sources.StorefrontRecord, int, error) {
	productID, variantID := sources.ParseRef(ref)
	key, err := strconv.Atoi(productID)
	if err != nil {
		return nil, 0, errors.NewAPIError(service, 404, fmt.Sprintf("product %q not found", ref))
	}
	rec, ok := s.products[key]
	if !ok || len(rec.Variants) == 0 {
		return nil, 0, errors.NewAPIError(service, 404, fmt.Sprintf("product %q not found", ref))
	}
	if variantID == "" {
		return rec, 0, nil
	}
	for i, v := range rec.Variants {
		if v.ID == variantID {
			return rec, i, nil
		}
	}
	return nil, 0, errors.NewAPIError(service, 404, fmt.Sprintf("variant %q not found", ref))
}

// insert stores a new single-variant product and returns its ID.
func (s *Storefront) insert(p sources.Payload) string {
	s.nextID++
	id := strconv.Itoa(s.nextID)

	rec := &sources.StorefrontRecord{
		ID:         id,
		Status:     sources.StatusActive,
		Variants:   []sources.StorefrontVariant{{ID: "v" + id, SKU: p.SKU.String()}},
		Metafields: maps.Clone(p.Attributes),
		Images:     slices.Clone(p.Images),
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Description != nil {
		rec.BodyHTML = *p.Description
	}
	if p.Price != nil {
		rec.Variants[0].Price = sources.Amount(p.Price.StringFixed(2))
	}
	if p.Active != nil {
		rec.Status = status(*p.Active)
	}

	s.products[s.nextID] = rec
	return id
}

func status(active bool) string {
	if active {
		return sources.StatusActive
	}
	return sources.StatusDraft
}

func cloneRecord(rec sources.StorefrontRecord) sources.StorefrontRecord {
	rec.Variants = slices.Clone(rec.Variants)
	rec.Images = slices.Clone(rec.Images)
	rec.Metafields = maps.Clone(rec.Metafields)
	return rec
}
