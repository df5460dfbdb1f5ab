package normalize

import "strings"

// Size strings that are widget chrome rather than actual options.
var sizePlaceholders = []string{
	"select size",
	"please select",
	"choose",
	"size guide",
}

// Availability annotations sites append to a size option.
var unavailableMarkers = []string{
	"out of stock",
	"sold out",
	"notify me",
	"not available",
}

// CleanSizes filters raw size-widget strings down to real, available
// options. Placeholder entries are dropped entirely; options annotated
// as unavailable are dropped from the cleaned set but remain in the
// caller's raw set.
func CleanSizes(raw []string) []string {
	var out []string
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || len(trimmed) > 40 {
			continue
		}
		lower := strings.ToLower(trimmed)
		if isAny(lower, sizePlaceholders) || isAny(lower, unavailableMarkers) {
			continue
		}
		// Keep just the size token when the site appends availability
		// text after a separator.
		if idx := strings.IndexAny(trimmed, "-–("); idx > 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// InferStock decides availability. A product with at least one
// available size option is in stock. Without a size system the
// decision falls back to an out-of-stock-text check over the page
// text; sites differ on what silence means, so the default for that
// case is an adapter policy.
func InferStock(availableSizes []string, pageText string, noSizeWidgetDefault bool) bool {
	if len(availableSizes) > 0 {
		return true
	}
	lower := strings.ToLower(pageText)
	for _, marker := range unavailableMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return noSizeWidgetDefault
}

func isAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
