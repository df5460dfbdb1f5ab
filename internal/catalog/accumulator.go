package catalog

import "sync"

// Accumulator is the per-run holder of in-progress products, keyed by
// canonical key. Workers report DETAIL extractions for potentially the
// same key in any order; access is serialized so each merge sees the
// full prior state.
type Accumulator struct {
	mu       sync.Mutex
	products map[string]Product
}

// NewAccumulator creates an empty accumulator for one crawl run.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		products: make(map[string]Product),
	}
}

// Absorb merges the incoming fragment with any prior state for its key
// and returns the accumulated product.
func (a *Accumulator) Absorb(incoming Product) Product {
	a.mu.Lock()
	defer a.mu.Unlock()

	var merged Product
	if existing, ok := a.products[incoming.CanonicalKey]; ok {
		merged = Merge(&existing, incoming)
	} else {
		merged = Merge(nil, incoming)
	}
	a.products[incoming.CanonicalKey] = merged
	return merged
}

// Get returns the accumulated product for a key, if any.
func (a *Accumulator) Get(key string) (Product, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.products[key]
	return p, ok
}

// Len returns the number of distinct canonical keys seen so far.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.products)
}

// Flush returns every accumulated product and resets the accumulator.
func (a *Accumulator) Flush() []Product {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Product, 0, len(a.products))
	for _, p := range a.products {
		out = append(out, p)
	}
	a.products = make(map[string]Product)
	return out
}
