package source

import (
	"regexp"

	"stylehunt/catalogworker/config"
	"stylehunt/catalogworker/helpers"
	"stylehunt/catalogworker/internal/extract"
)

// Registry creates the adapter for every configured site. Each entry
// owns its site's selectors and URL shapes; the pipeline itself never
// looks at a site-specific shape.
func Registry(cfg config.Config) []Adapter {
	return []Adapter{
		newBrickworks(cfg),
		newThreadbare(cfg),
		newVeloModa(cfg),
	}
}

// Brickworks: UK menswear/womenswear store. Reliable JSON-LD on detail
// pages, link-based pagination.
func newBrickworks(cfg config.Config) Adapter {
	base := cfg.BrickworksURL
	return NewSiteAdapter(SiteConfig{
		ID:        "brickworks",
		Store:     "brickworks",
		StoreName: "Brickworks",
		BaseURL:   base,
		Seeds: []Seed{
			{URL: base + "/men/sale", Gender: "men", Category: "sale"},
			{URL: base + "/women/sale", Gender: "women", Category: "sale"},
		},
		DetailPattern:    regexp.MustCompile(`/shop/[a-z0-9-]+-prd-\d+`),
		ListPattern:      regexp.MustCompile(`/(men|women)(/[a-z-]+)?(\?|$)`),
		ListLinkSelector: `a[data-testid="product-card-link"]`,
		NextPageSelector: `a[rel="next"]`,
		Fields: map[string][]extract.Strategy{
			FieldSKU: {
				extract.FromStructured("sku"),
				extract.FromAttr("[data-style-code]", "data-style-code"),
				// Detail paths end in "<name>-prd-<styleCode>".
				extract.FromPageURL("style-code", func(url string) string {
					segment := helpers.LastPathSegment(url)
					code, err := helpers.GetSplitPart(segment, "-prd-", 1)
					if err != nil || code == "" {
						return ""
					}
					return "prd-" + code
				}),
			},
			FieldTitle: {
				extract.FromStructured("name"),
				extract.FromMeta("og:title"),
				extract.FromText(`h1[data-testid="product-title"]`),
			},
			FieldPrice: {
				extract.FromStructured("offers", "price"),
				extract.FromMeta("product:price:amount"),
				extract.FromText(`span[data-testid="current-price"]`),
				extract.FromTextPattern(`Now £([0-9,.]+)`),
			},
			FieldOriginalPrice: {
				extract.FromText(`span[data-testid="previous-price"]`),
				extract.FromTextPattern(`Was £([0-9,.]+)`),
			},
			FieldCurrency: {
				extract.FromStructured("offers", "priceCurrency"),
				extract.FromMeta("product:price:currency"),
			},
			FieldImage: {
				extract.FromStructured("image"),
				extract.FromMeta("og:image"),
				extract.FromSrcset(`img[data-testid="hero-image"]`),
			},
			FieldImages: {
				extract.FromStructured("image"),
				extract.FromSrcset(`li[data-testid="gallery-item"] img`),
				extract.FromAttr(`li[data-testid="gallery-item"] img`, "src"),
			},
			FieldColors: {
				extract.FromStructured("color"),
				extract.FromText(`span[data-testid="colour-name"]`),
			},
			FieldSizes: {
				extract.FromText(`select[data-testid="size-select"] option`),
				extract.FromText(`ul.size-grid li`),
			},
		},
		Validators: map[string]func(string) bool{
			FieldPrice:         extract.ValidPrice,
			FieldOriginalPrice: extract.ValidPrice,
			FieldImage:         extract.ValidMediaURL("media.brickworks"),
			FieldImages:        extract.ValidMediaURL("media.brickworks"),
			FieldTitle:         extract.ValidNonEmpty(250),
			FieldColors:        extract.ValidOption(40),
			FieldSizes:         extract.ValidOption(40),
		},
		Currency:       "GBP",
		InStockDefault: true,
	})
}

// Threadbare: US store. Thin markup, no JSON-LD on most pages, so meta
// tags and DOM text carry more weight. Paginates by query parameter.
func newThreadbare(cfg config.Config) Adapter {
	base := cfg.ThreadbareURL
	return NewSiteAdapter(SiteConfig{
		ID:        "threadbare",
		Store:     "threadbare",
		StoreName: "Threadbare",
		BaseURL:   base,
		Seeds: []Seed{
			{URL: base + "/collections/mens-clearance", Gender: "men", Category: "clearance"},
			{URL: base + "/collections/womens-clearance", Gender: "women", Category: "clearance"},
		},
		DetailPattern:    regexp.MustCompile(`/products/[a-z0-9-]+`),
		ListPattern:      regexp.MustCompile(`/collections/[a-z0-9-]+`),
		ListLinkSelector: `div.product-grid a.product-link`,
		NextPageParam:    "page",
		Fields: map[string][]extract.Strategy{
			FieldSKU: {
				extract.FromStructured("sku"),
				extract.FromMeta("product:retailer_item_id"),
			},
			FieldTitle: {
				extract.FromStructured("name"),
				extract.FromMeta("og:title"),
				extract.FromText("h1.product-single__title"),
			},
			FieldPrice: {
				extract.FromStructured("offers", "price"),
				extract.FromMeta("og:price:amount"),
				extract.FromText("span.price-item--sale"),
				extract.FromText("span.price-item--regular"),
			},
			FieldOriginalPrice: {
				extract.FromText("s.price-item--regular"),
			},
			FieldCurrency: {
				extract.FromStructured("offers", "priceCurrency"),
				extract.FromMeta("og:price:currency"),
			},
			FieldImage: {
				extract.FromMeta("og:image:secure_url"),
				extract.FromMeta("og:image"),
				extract.FromAttr("img.product-featured-media", "src"),
			},
			FieldImages: {
				extract.FromAttr("div.product-single__thumbnails img", "data-src"),
				extract.FromAttr("div.product-single__thumbnails img", "src"),
			},
			FieldColors: {
				extract.FromText(`fieldset[name="Color"] label`),
			},
			FieldSizes: {
				extract.FromText(`fieldset[name="Size"] label`),
				extract.FromText(`select[name="Size"] option`),
			},
		},
		Validators: map[string]func(string) bool{
			FieldPrice:         extract.ValidPrice,
			FieldOriginalPrice: extract.ValidPrice,
			FieldImage:         extract.ValidMediaURL("cdn.threadbare"),
			FieldImages:        extract.ValidMediaURL("cdn.threadbare"),
			FieldTitle:         extract.ValidNonEmpty(250),
			FieldColors:        extract.ValidOption(40),
			FieldSizes:         extract.ValidOption(40),
		},
		Currency:       "USD",
		InStockDefault: true,
	})
}

// VeloModa: German store. JSON-LD present but frequently stale on sale
// items, hence the testid fallbacks right behind it. A page without a
// size widget is treated as out of stock here, unlike the other two.
func newVeloModa(cfg config.Config) Adapter {
	base := cfg.VeloModaURL
	return NewSiteAdapter(SiteConfig{
		ID:        "velomoda",
		Store:     "velomoda",
		StoreName: "VeloModa",
		BaseURL:   base,
		Seeds: []Seed{
			{URL: base + "/herren/sale", Gender: "men", Category: "sale"},
			{URL: base + "/damen/sale", Gender: "women", Category: "sale"},
		},
		DetailPattern:    regexp.MustCompile(`/artikel/[a-z0-9-]+\.html`),
		ListPattern:      regexp.MustCompile(`/(herren|damen)/[a-z-]+`),
		ListLinkSelector: `article.product-tile > a`,
		NextPageSelector: `a.pagination__next`,
		Fields: map[string][]extract.Strategy{
			FieldSKU: {
				extract.FromStructured("sku"),
				extract.FromAttr("[data-artikel-nr]", "data-artikel-nr"),
			},
			FieldTitle: {
				extract.FromStructured("name"),
				extract.FromText(`h1[data-testid="pdp-name"]`),
			},
			FieldPrice: {
				extract.FromText(`span[data-testid="pdp-price-reduced"]`),
				extract.FromText(`span[data-testid="pdp-price"]`),
				extract.FromStructured("offers", "price"),
			},
			FieldOriginalPrice: {
				extract.FromText(`span[data-testid="pdp-price-original"]`),
			},
			FieldCurrency: {
				extract.FromStructured("offers", "priceCurrency"),
			},
			FieldImage: {
				extract.FromMeta("og:image"),
				extract.FromStructured("image"),
			},
			FieldImages: {
				extract.FromStructured("image"),
				extract.FromSrcset("div.pdp-gallery img"),
			},
			FieldColors: {
				extract.FromText(`span[data-testid="pdp-colour"]`),
				extract.FromStructured("color"),
			},
			FieldSizes: {
				extract.FromText(`div[data-testid="size-picker"] button`),
			},
		},
		Validators: map[string]func(string) bool{
			FieldPrice:         extract.ValidPrice,
			FieldOriginalPrice: extract.ValidPrice,
			FieldImage:         extract.ValidMediaURL("img.velomoda"),
			FieldImages:        extract.ValidMediaURL("img.velomoda"),
			FieldTitle:         extract.ValidNonEmpty(250),
			FieldColors:        extract.ValidOption(40),
			FieldSizes:         extract.ValidOption(40),
		},
		Currency:       "EUR",
		InStockDefault: false,
	})
}
