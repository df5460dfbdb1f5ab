package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stylehunt/catalogworker/internal/normalize"
)

// Strategy is one named way of pulling a field out of a page. A
// strategy that finds nothing returns an empty slice; it never errors
// for absence.
type Strategy struct {
	Name    string
	Extract func(p *Page) []string
}

// Extraction records which strategy produced a field's value.
type Extraction struct {
	Field    string
	Values   []string
	Strategy string
}

// Value returns the primary (first) extracted value.
func (e *Extraction) Value() string {
	if e == nil || len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}

// Field runs a field's strategies strictly in declared order and
// returns the first one yielding at least one value passing the
// validity predicate. Structured data outranks DOM outranks free text
// by construction of the adapter's strategy list; a lower-priority
// match never overrides a higher one.
func Field(p *Page, field string, strategies []Strategy, valid func(string) bool) *Extraction {
	for _, strategy := range strategies {
		if strategy.Extract == nil {
			continue
		}
		var kept []string
		for _, value := range strategy.Extract(p) {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if valid != nil && !valid(value) {
				continue
			}
			kept = append(kept, value)
		}
		if len(kept) > 0 {
			return &Extraction{Field: field, Values: kept, Strategy: strategy.Name}
		}
	}
	return nil
}

// FromStructured reads a key path from the page's JSON-LD Product blob.
func FromStructured(path ...string) Strategy {
	return Strategy{
		Name: "structured:" + strings.Join(path, "."),
		Extract: func(p *Page) []string {
			return p.StructuredValues(path...)
		},
	}
}

// FromMeta reads the content attribute of a meta tag matched by
// property or name.
func FromMeta(key string) Strategy {
	return Strategy{
		Name: "meta:" + key,
		Extract: func(p *Page) []string {
			var out []string
			sel := `meta[property="` + key + `"], meta[name="` + key + `"]`
			p.Doc.Find(sel).Each(func(i int, s *goquery.Selection) {
				if content, ok := s.Attr("content"); ok {
					out = append(out, content)
				}
			})
			return out
		},
	}
}

// FromAttr reads one attribute from every element matched by the
// selector.
func FromAttr(selector, attr string) Strategy {
	return Strategy{
		Name: "attr:" + selector + "@" + attr,
		Extract: func(p *Page) []string {
			var out []string
			p.Doc.Find(selector).Each(func(i int, s *goquery.Selection) {
				if value, ok := s.Attr(attr); ok {
					out = append(out, value)
				}
			})
			return out
		},
	}
}

// FromText reads the trimmed text of every element matched by the
// selector.
func FromText(selector string) Strategy {
	return Strategy{
		Name: "text:" + selector,
		Extract: func(p *Page) []string {
			var out []string
			p.Doc.Find(selector).Each(func(i int, s *goquery.Selection) {
				out = append(out, strings.TrimSpace(s.Text()))
			})
			return out
		},
	}
}

// FromSrcset reads srcset attributes and keeps only each element's
// highest-resolution candidate.
func FromSrcset(selector string) Strategy {
	return Strategy{
		Name: "srcset:" + selector,
		Extract: func(p *Page) []string {
			var out []string
			p.Doc.Find(selector).Each(func(i int, s *goquery.Selection) {
				if srcset, ok := s.Attr("srcset"); ok {
					if best := normalize.BestFromSrcset(srcset); best != "" {
						out = append(out, best)
					}
				}
			})
			return out
		},
	}
}

// FromTextPattern applies a regular expression with one capture group
// to the page's rendered text. The lowest-confidence fallback.
func FromTextPattern(pattern string) Strategy {
	re := regexp.MustCompile(pattern)
	return Strategy{
		Name: "pattern:" + pattern,
		Extract: func(p *Page) []string {
			match := re.FindStringSubmatch(p.Text())
			if len(match) < 2 {
				return nil
			}
			return []string{match[1]}
		},
	}
}

// FromPageURL derives a value from the page URL itself, for sites that
// embed a style code in the product path.
func FromPageURL(name string, derive func(url string) string) Strategy {
	return Strategy{
		Name: "url:" + name,
		Extract: func(p *Page) []string {
			if value := derive(p.URL); value != "" {
				return []string{value}
			}
			return nil
		},
	}
}

// Fixed always yields the given value; adapters use it for per-site
// constants such as the default currency.
func Fixed(value string) Strategy {
	return Strategy{
		Name: "fixed",
		Extract: func(p *Page) []string {
			return []string{value}
		},
	}
}
