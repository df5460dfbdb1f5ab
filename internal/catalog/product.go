package catalog

import (
	"strings"
	"time"

	"stylehunt/catalogworker/pkg/errors"
)

// Status values for a catalog product.
const (
	StatusActive = "active"
	StatusOnSale = "on_sale"
)

// Product is the canonical, deduplicated unit of the catalog. One
// Product accumulates every extraction sharing its canonical key
// within a run, across however many variant URLs the product is
// reachable through.
type Product struct {
	CanonicalKey    string    `json:"canonical_key" bson:"canonical_key"`
	Store           string    `json:"store" bson:"store"`
	StoreName       string    `json:"store_name" bson:"store_name"`
	Title           string    `json:"title" bson:"title"`
	Price           *float64  `json:"price" bson:"price"`
	Currency        string    `json:"currency" bson:"currency"`
	OriginalPrice   *float64  `json:"original_price,omitempty" bson:"original_price,omitempty"`
	DiscountPercent *int      `json:"discount_percent,omitempty" bson:"discount_percent,omitempty"`
	Image           string    `json:"image" bson:"image"`
	Images          []string  `json:"images,omitempty" bson:"images,omitempty"`
	ProductURL      string    `json:"product_url" bson:"product_url"`
	SaleURL         string    `json:"sale_url,omitempty" bson:"sale_url,omitempty"`
	Category        string    `json:"category,omitempty" bson:"category,omitempty"`
	Gender          string    `json:"gender,omitempty" bson:"gender,omitempty"`
	Colors          []string  `json:"colors,omitempty" bson:"colors,omitempty"`
	SizesRaw        []string  `json:"sizes_raw,omitempty" bson:"sizes_raw,omitempty"`
	Sizes           []string  `json:"sizes,omitempty" bson:"sizes,omitempty"`
	InStock         *bool     `json:"in_stock,omitempty" bson:"in_stock,omitempty"`
	Status          string    `json:"status,omitempty" bson:"status,omitempty"`
	LastSeenAt      time.Time `json:"last_seen_at" bson:"last_seen_at"`
}

// MissingFields returns the names of mandatory fields the product
// lacks. A product with any missing mandatory field never reaches the
// sink.
func (p *Product) MissingFields() []string {
	var missing []string
	if p.CanonicalKey == "" {
		missing = append(missing, "canonical_key")
	}
	if p.Store == "" {
		missing = append(missing, "store")
	}
	if p.StoreName == "" {
		missing = append(missing, "store_name")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Price == nil {
		missing = append(missing, "price")
	}
	if p.Currency == "" {
		missing = append(missing, "currency")
	}
	if p.Image == "" {
		missing = append(missing, "image")
	}
	if p.ProductURL == "" {
		missing = append(missing, "product_url")
	}
	return missing
}

// Validate returns a validation error naming every missing mandatory
// field, or nil when the product is complete.
func (p *Product) Validate() error {
	missing := p.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	return errors.NewValidation(p.Store, "missing mandatory fields: "+strings.Join(missing, ", "))
}
