package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/agentstation/storesync/pkg/sources"
)

// Supplier is an in-memory sources.Supplier serving a fixed feed.
type Supplier struct {
	mu       sync.Mutex
	records  []sources.SupplierRecord
	complete bool
	err      error
	calls    int
}

var _ sources.Supplier = (*Supplier)(nil)

// NewSupplier creates a Supplier serving a complete feed of records.
func NewSupplier(records ...sources.SupplierRecord) *Supplier {
	return &Supplier{records: records, complete: true}
}

// SetRecords replaces the feed.
func (s *Supplier) SetRecords(records ...sources.SupplierRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

// SetComplete marks the served snapshot complete or partial.
func (s *Supplier) SetComplete(complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = complete
}

// SetError makes every listing fail with err, or succeed again with nil.
func (s *Supplier) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many times the feed was listed.
func (s *Supplier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ListProducts implements sources.Supplier.
func (s *Supplier) ListProducts(ctx context.Context) (sources.SupplierSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return sources.SupplierSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return sources.SupplierSnapshot{}, s.err
	}
	return sources.SupplierSnapshot{Records: slices.Clone(s.records), Complete: s.complete}, nil
}
