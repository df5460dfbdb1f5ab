package catalog

import "time"

// Merge combines two extractions of the same canonical key into one
// accumulated product. Scalar fields take the latest non-null value;
// set fields grow monotonically by union. Merging the same fragment
// twice changes nothing, and for fragments that do not conflict on a
// scalar, arrival order does not matter either.
func Merge(existing *Product, incoming Product) Product {
	if existing == nil {
		merged := incoming
		merged.Images = unionStrings(nil, incoming.Images)
		merged.Colors = unionStrings(nil, incoming.Colors)
		merged.SizesRaw = unionStrings(nil, incoming.SizesRaw)
		merged.Sizes = unionStrings(nil, incoming.Sizes)
		merged.LastSeenAt = time.Now()
		return merged
	}

	merged := *existing

	if incoming.Title != "" {
		merged.Title = incoming.Title
	}
	if incoming.StoreName != "" {
		merged.StoreName = incoming.StoreName
	}
	if incoming.Price != nil {
		merged.Price = incoming.Price
	}
	if incoming.Currency != "" {
		merged.Currency = incoming.Currency
	}
	if incoming.OriginalPrice != nil {
		merged.OriginalPrice = incoming.OriginalPrice
	}
	if incoming.DiscountPercent != nil {
		merged.DiscountPercent = incoming.DiscountPercent
	}
	if incoming.Image != "" {
		merged.Image = incoming.Image
	}
	if incoming.ProductURL != "" {
		merged.ProductURL = incoming.ProductURL
	}
	if incoming.SaleURL != "" {
		merged.SaleURL = incoming.SaleURL
	}
	if incoming.Category != "" {
		merged.Category = incoming.Category
	}
	if incoming.Gender != "" {
		merged.Gender = incoming.Gender
	}
	if incoming.InStock != nil {
		merged.InStock = incoming.InStock
	}
	if incoming.Status != "" {
		merged.Status = incoming.Status
	}

	// Set fields never shrink, even when the incoming extraction is
	// empty for them.
	merged.Images = unionStrings(existing.Images, incoming.Images)
	merged.Colors = unionStrings(existing.Colors, incoming.Colors)
	merged.SizesRaw = unionStrings(existing.SizesRaw, incoming.SizesRaw)
	merged.Sizes = unionStrings(existing.Sizes, incoming.Sizes)

	merged.LastSeenAt = time.Now()
	return merged
}

// unionStrings returns a stable-order union of both slices. The result
// is always a fresh slice so merges never alias accumulator state.
func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range b {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
