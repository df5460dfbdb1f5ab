package extract

import (
	"strings"

	"stylehunt/catalogworker/internal/normalize"
)

// Validity predicates are what keeps a malformed match from winning a
// strategy slot: a bad value is "no match", and the next strategy gets
// its turn.

// ValidPrice accepts values whose digits parse to a positive amount.
func ValidPrice(value string) bool {
	price := normalize.ParsePrice(value)
	return price != nil && *price > 0
}

// ValidMediaURL accepts URL-shaped values, optionally restricted to a
// site's known media host.
func ValidMediaURL(hostSuffix string) func(string) bool {
	return func(value string) bool {
		if !strings.HasPrefix(value, "http") && !strings.HasPrefix(value, "//") && !strings.HasPrefix(value, "/") {
			return false
		}
		if hostSuffix == "" {
			return true
		}
		return strings.Contains(value, hostSuffix) || strings.HasPrefix(value, "/")
	}
}

// ValidOption accepts short, real option strings and rejects widget
// placeholders such as "Select size".
func ValidOption(maxLen int) func(string) bool {
	return func(value string) bool {
		if len(value) == 0 || len(value) > maxLen {
			return false
		}
		lower := strings.ToLower(value)
		for _, placeholder := range []string{"select", "choose", "please"} {
			if strings.HasPrefix(lower, placeholder) {
				return false
			}
		}
		return true
	}
}

// ValidNonEmpty accepts any non-blank value up to a length cap.
func ValidNonEmpty(maxLen int) func(string) bool {
	return func(value string) bool {
		trimmed := strings.TrimSpace(value)
		return trimmed != "" && len(trimmed) <= maxLen
	}
}
