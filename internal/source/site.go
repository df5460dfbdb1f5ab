package source

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stylehunt/catalogworker/helpers"
	"stylehunt/catalogworker/internal/extract"
)

// SiteConfig describes one site declaratively: URL shapes, selectors
// and per-field strategy lists. The concrete per-site values live in
// sites.go.
type SiteConfig struct {
	ID        string
	Store     string
	StoreName string
	BaseURL   string
	Seeds     []Seed

	// URL classification
	DetailPattern *regexp.Regexp
	ListPattern   *regexp.Regexp

	// LIST page queries
	ListLinkSelector string
	NextPageSelector string
	NextPageParam    string

	// DETAIL page extraction
	Fields     map[string][]extract.Strategy
	Validators map[string]func(string) bool

	Currency       string
	InStockDefault bool
}

// SiteAdapter is the config-driven Adapter every site uses.
type SiteAdapter struct {
	cfg SiteConfig
}

// NewSiteAdapter builds an adapter from a site configuration.
func NewSiteAdapter(cfg SiteConfig) *SiteAdapter {
	return &SiteAdapter{cfg: cfg}
}

func (a *SiteAdapter) ID() string        { return a.cfg.ID }
func (a *SiteAdapter) Store() string     { return a.cfg.Store }
func (a *SiteAdapter) StoreName() string { return a.cfg.StoreName }
func (a *SiteAdapter) Seeds() []Seed     { return a.cfg.Seeds }

// Classify labels a URL by matching it against the site's detail and
// list patterns, detail first since product URLs are usually the more
// specific shape.
func (a *SiteAdapter) Classify(rawURL string) PageKind {
	if a.cfg.DetailPattern != nil && a.cfg.DetailPattern.MatchString(rawURL) {
		return KindDetail
	}
	if a.cfg.ListPattern != nil && a.cfg.ListPattern.MatchString(rawURL) {
		return KindList
	}
	return KindUnknown
}

// ListLinks harvests product links from a LIST page and absolutizes
// them against the page URL.
func (a *SiteAdapter) ListLinks(page *extract.Page) []string {
	var links []string
	seen := make(map[string]bool)
	page.Doc.Find(a.cfg.ListLinkSelector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs := a.absolutize(page.URL, strings.TrimSpace(href))
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

// NextPageURL resolves pagination either through an explicit next link
// or, for sites that paginate by query parameter, by bumping the page
// number. Empty means pagination ends here.
func (a *SiteAdapter) NextPageURL(page *extract.Page, currentPage int) string {
	if a.cfg.NextPageSelector != "" {
		href, ok := page.Doc.Find(a.cfg.NextPageSelector).First().Attr("href")
		if ok && strings.TrimSpace(href) != "" {
			return a.absolutize(page.URL, strings.TrimSpace(href))
		}
		return ""
	}

	if a.cfg.NextPageParam != "" {
		u, err := url.Parse(page.URL)
		if err != nil {
			return ""
		}
		// Trust the page number in the URL over the depth counter when
		// both are present.
		next := currentPage + 1
		if v := helpers.QueryParam(page.URL, a.cfg.NextPageParam); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				next = n + 1
			}
		}
		q := u.Query()
		q.Set(a.cfg.NextPageParam, strconv.Itoa(next))
		u.RawQuery = q.Encode()
		return u.String()
	}

	return ""
}

func (a *SiteAdapter) FieldStrategies(field string) []extract.Strategy {
	return a.cfg.Fields[field]
}

func (a *SiteAdapter) FieldValidator(field string) func(string) bool {
	return a.cfg.Validators[field]
}

func (a *SiteAdapter) DefaultCurrency() string { return a.cfg.Currency }

func (a *SiteAdapter) InStockWithoutSizes() bool { return a.cfg.InStockDefault }

func (a *SiteAdapter) absolutize(pageURL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		base, err = url.Parse(a.cfg.BaseURL)
		if err != nil {
			return ""
		}
	}
	return base.ResolveReference(ref).String()
}
