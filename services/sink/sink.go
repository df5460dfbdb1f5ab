package sink

import (
	"context"
	"sync"

	"stylehunt/catalogworker/internal/catalog"
)

// Result reports what an upsert did.
type Result string

const (
	ResultInserted  Result = "inserted"
	ResultUpdated   Result = "updated"
	ResultUnchanged Result = "unchanged"
)

// Sink is the idempotent persistence boundary, keyed by canonical key.
// The pipeline owns set-union semantics; a sink performs a plain field
// overwrite, so replaying the same product twice never double-counts
// array growth.
type Sink interface {
	// Upsert persists a product under its canonical key.
	Upsert(ctx context.Context, product catalog.Product) (Result, error)

	// Close releases the sink's resources.
	Close(ctx context.Context) error
}

// MemorySink is an in-process Sink used by tests and dry runs.
type MemorySink struct {
	mu       sync.Mutex
	products map[string]catalog.Product
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{products: make(map[string]catalog.Product)}
}

// Upsert stores the product, overwriting any prior state for the key.
func (m *MemorySink) Upsert(ctx context.Context, product catalog.Product) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.products[product.CanonicalKey]
	m.products[product.CanonicalKey] = product
	if existed {
		return ResultUpdated, nil
	}
	return ResultInserted, nil
}

// Close is a no-op for the in-memory sink.
func (m *MemorySink) Close(ctx context.Context) error {
	return nil
}

// Get returns the stored product for a key, if any.
func (m *MemorySink) Get(key string) (catalog.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[key]
	return p, ok
}

// Len returns the number of stored products.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

// All returns every stored product.
func (m *MemorySink) All() []catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out
}
