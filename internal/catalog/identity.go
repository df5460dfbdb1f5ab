package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Query parameters that select a variant of the same logical product
// or carry tracking state. Two URLs differing only by these must map
// to the same canonical key.
var droppedQueryParams = map[string]bool{
	"color":             true,
	"colour":            true,
	"colcode":           true,
	"colourid":          true,
	"size":              true,
	"sizeid":            true,
	"variant":           true,
	"option":            true,
	"ref":               true,
	"cid":               true,
	"gclid":             true,
	"fbclid":            true,
	"mc_cid":            true,
	"mc_eid":            true,
	"affid":             true,
	"campaign":          true,
	"currentpricerange": true,
}

// CanonicalURL normalizes a URL so that variant and tracking noise
// does not split one logical product into many. Host is lowercased,
// the fragment dropped, variant/tracking parameters removed and the
// survivors re-emitted in sorted order.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for name := range q {
		if droppedQueryParams[strings.ToLower(name)] || strings.HasPrefix(strings.ToLower(name), "utm_") {
			q.Del(name)
		}
	}
	u.RawQuery = encodeSorted(q)

	return u.String()
}

// encodeSorted renders query values with deterministic key order.
func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// CanonicalKey derives the stable identity of a product. A site-native
// identifier (SKU or style code) wins over the URL, since a product's
// canonical URL can change while its SKU does not. Without one, the
// canonicalized product URL is hashed instead.
func CanonicalKey(store, identifier, productURL string) string {
	basis := identifier
	if basis == "" {
		basis = CanonicalURL(productURL)
	}
	return fmt.Sprintf("%s:%016x", store, xxhash.Sum64String(store+":"+basis))
}
