package extract

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page wraps a fetched document together with its URL and any embedded
// structured data, so extraction strategies can query all of them
// without re-parsing.
type Page struct {
	URL string
	Doc *goquery.Document

	structured []map[string]interface{}
	text       string
	textReady  bool
}

// NewPage parses the body into a document and eagerly collects every
// JSON-LD blob on the page. Malformed blobs are skipped, not errors;
// stale or absent structured data is exactly why lower-priority
// strategies exist.
func NewPage(url string, body io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}

	page := &Page{URL: url, Doc: doc}

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var blob interface{}
		if err := json.Unmarshal([]byte(s.Text()), &blob); err != nil {
			return
		}
		page.collectStructured(blob)
	})

	return page, nil
}

// collectStructured flattens top-level arrays and @graph containers
// into a single list of objects.
func (p *Page) collectStructured(blob interface{}) {
	switch v := blob.(type) {
	case map[string]interface{}:
		if graph, ok := v["@graph"]; ok {
			p.collectStructured(graph)
			return
		}
		p.structured = append(p.structured, v)
	case []interface{}:
		for _, item := range v {
			p.collectStructured(item)
		}
	}
}

// StructuredProduct returns the first JSON-LD object typed as a
// Product, or nil when the page carries none.
func (p *Page) StructuredProduct() map[string]interface{} {
	for _, obj := range p.structured {
		if hasType(obj, "Product") {
			return obj
		}
	}
	return nil
}

func hasType(obj map[string]interface{}, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// StructuredValues walks a key path into the page's Product blob and
// returns every string or number found at the leaf. Intermediate
// arrays are fanned out, so "offers"/"price" works whether offers is
// one object or a list.
func (p *Page) StructuredValues(path ...string) []string {
	product := p.StructuredProduct()
	if product == nil {
		return nil
	}

	nodes := []interface{}{product}
	for _, key := range path {
		var next []interface{}
		for _, node := range nodes {
			obj, ok := node.(map[string]interface{})
			if !ok {
				continue
			}
			value, ok := obj[key]
			if !ok {
				continue
			}
			if list, ok := value.([]interface{}); ok {
				next = append(next, list...)
			} else {
				next = append(next, value)
			}
		}
		nodes = next
	}

	var out []string
	for _, node := range nodes {
		switch v := node.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				out = append(out, trimmed)
			}
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return out
}

// Text returns the rendered text of the page body, computed once.
func (p *Page) Text() string {
	if !p.textReady {
		p.text = strings.Join(strings.Fields(p.Doc.Text()), " ")
		p.textReady = true
	}
	return p.text
}
