package normalize

import (
	"net/url"
	"strconv"
	"strings"
)

// Path/host fragments that mark an image as a non-product asset
// (icons, swatches, template placeholders).
var rejectedImageFragments = []string{
	"sprite",
	"icon",
	"logo",
	"placeholder",
	"swatch",
	"spacer",
	"blank.",
	"1x1",
	"pixel.",
	"loading.gif",
}

// CDN sizing parameters rewritten to a consistent target resolution so
// repeated crawls of the same asset normalize to one URL.
var cdnWidthParams = []string{"wid", "w", "width", "sw"}
var cdnQualityParams = []string{"qlt", "q", "quality"}

const targetImageWidth = "800"
const targetImageQuality = "80"

// CanonicalImageURL converts a raw image reference into a stable
// absolute URL, or reports false for references that are not usable
// product imagery.
func CanonicalImageURL(raw, pageURL string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return "", false
	}

	lower := strings.ToLower(raw)
	for _, fragment := range rejectedImageFragments {
		if strings.Contains(lower, fragment) {
			return "", false
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	// Absolutize protocol-relative and relative references against the
	// page the image was found on.
	if !u.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	// Reject obviously tiny renditions requested via CDN params.
	q := u.Query()
	for _, name := range cdnWidthParams {
		if v := q.Get(name); v != "" {
			if w, err := strconv.Atoi(v); err == nil && w < 100 {
				return "", false
			}
			q.Set(name, targetImageWidth)
		}
	}
	for _, name := range cdnQualityParams {
		if q.Get(name) != "" {
			q.Set(name, targetImageQuality)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), true
}

// BestFromSrcset picks the highest-resolution candidate from a srcset
// attribute value by comparing declared widths. Candidates without a
// width descriptor count as width zero.
func BestFromSrcset(srcset string) string {
	best := ""
	bestWidth := -1

	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) == 0 {
			continue
		}
		width := 0
		if len(fields) > 1 && strings.HasSuffix(fields[1], "w") {
			if parsed, err := strconv.Atoi(strings.TrimSuffix(fields[1], "w")); err == nil {
				width = parsed
			}
		}
		if width > bestWidth {
			bestWidth = width
			best = fields[0]
		}
	}

	return best
}
