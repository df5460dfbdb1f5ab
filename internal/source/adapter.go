package source

import (
	"stylehunt/catalogworker/internal/extract"
)

// PageKind labels what a URL points at.
type PageKind int

const (
	KindUnknown PageKind = iota
	KindList
	KindDetail
)

func (k PageKind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Field names the pipeline extracts from a DETAIL page. Every adapter
// declares an ordered strategy list per field; absent fields simply
// have no strategies.
const (
	FieldSKU           = "sku"
	FieldTitle         = "title"
	FieldPrice         = "price"
	FieldOriginalPrice = "original_price"
	FieldCurrency      = "currency"
	FieldImage         = "image"
	FieldImages        = "images"
	FieldColors        = "colors"
	FieldSizes         = "sizes"
)

// Seed is a crawl entry point with the context tags that cannot be
// recovered from page content further down the task graph.
type Seed struct {
	URL      string
	Gender   string
	Category string
}

// Adapter is the per-site bundle of classification and extraction
// behavior. Adapters are pure configuration plus read-only page
// queries; they carry no side effects.
type Adapter interface {
	// ID identifies the source for scheduling and logging.
	ID() string
	// Store is the canonical store key used in identity computation.
	Store() string
	// StoreName is the display name persisted on each product.
	StoreName() string
	// Seeds returns the configured crawl entry points.
	Seeds() []Seed
	// Classify labels a URL as LIST or DETAIL. KindUnknown drops the
	// task without retry.
	Classify(url string) PageKind
	// ListLinks returns the product links found on a LIST page,
	// absolutized.
	ListLinks(page *extract.Page) []string
	// NextPageURL returns the next LIST page, or "" when pagination
	// ends.
	NextPageURL(page *extract.Page, currentPage int) string
	// FieldStrategies returns a field's extraction strategies in
	// priority order.
	FieldStrategies(field string) []extract.Strategy
	// FieldValidator returns the validity predicate for a field, or
	// nil when any non-empty value passes.
	FieldValidator(field string) func(string) bool
	// DefaultCurrency applies when neither structured data nor symbol
	// sniffing resolves one.
	DefaultCurrency() string
	// InStockWithoutSizes is the site's policy for pages without a
	// size widget and no out-of-stock text.
	InStockWithoutSizes() bool
}
