package engine

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylehunt/catalogworker/internal/catalog"
	"stylehunt/catalogworker/internal/extract"
	"stylehunt/catalogworker/internal/source"
	"stylehunt/catalogworker/pkg/errors"
	"stylehunt/catalogworker/services/sink"
)

// fakeFetcher serves pages from a map and records every request. It
// can simulate transient failures and hard denials per URL.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]int
	denied   map[string]bool
	calls    map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{
		pages:    pages,
		failures: make(map[string]int),
		denied:   make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.denied[url] {
		return nil, errors.NewRobots("teststore", url)
	}
	if f.failures[url] > 0 {
		f.failures[url]--
		return nil, errors.NewFetch("teststore", "fetch "+url, io.ErrUnexpectedEOF)
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.NewFetch("teststore", "fetch "+url, fmt.Errorf("no page for %s", url))
	}
	return strings.NewReader(body), nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func testAdapter() source.Adapter {
	return source.NewSiteAdapter(source.SiteConfig{
		ID:               "teststore",
		Store:            "teststore",
		StoreName:        "Test Store",
		BaseURL:          "https://shop.example",
		DetailPattern:    regexp.MustCompile(`/product/`),
		ListPattern:      regexp.MustCompile(`/collection/`),
		ListLinkSelector: "a.product-link",
		NextPageParam:    "page",
		Fields: map[string][]extract.Strategy{
			source.FieldSKU:      {extract.FromStructured("sku")},
			source.FieldTitle:    {extract.FromStructured("name"), extract.FromMeta("og:title")},
			source.FieldPrice:    {extract.FromStructured("offers", "price"), extract.FromText("span.price")},
			source.FieldCurrency: {extract.FromStructured("offers", "priceCurrency")},
			source.FieldImage:    {extract.FromMeta("og:image")},
			source.FieldImages:   {extract.FromAttr("img.gallery", "src")},
			source.FieldColors:   {extract.FromText("li.colour")},
			source.FieldSizes:    {extract.FromText("li.size")},
		},
		Validators: map[string]func(string) bool{
			source.FieldPrice: extract.ValidPrice,
			source.FieldSizes: extract.ValidOption(12),
		},
		Currency:       "GBP",
		InStockDefault: true,
	})
}

func listHTML(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"grid\">")
	for _, link := range links {
		fmt.Fprintf(&b, `<a class="product-link" href="%s">item</a>`, link)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func detailHTML(sku, name, price, image string, sizes, colours []string) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	fmt.Fprintf(&b, `<meta property="og:title" content="%s"/>`, name)
	if image != "" {
		fmt.Fprintf(&b, `<meta property="og:image" content="%s"/>`, image)
	}
	if sku != "" || price != "" {
		fmt.Fprintf(&b, `<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","sku":"%s","name":"%s"`, sku, name)
		if price != "" {
			fmt.Fprintf(&b, `,"offers":{"@type":"Offer","price":"%s","priceCurrency":"GBP"}`, price)
		}
		b.WriteString("}</script>")
	}
	b.WriteString("</head><body>")
	b.WriteString("<ul class=\"sizes\">")
	for _, size := range sizes {
		fmt.Fprintf(&b, "<li class=\"size\">%s</li>", size)
	}
	b.WriteString("</ul><ul class=\"colours\">")
	for _, colour := range colours {
		fmt.Fprintf(&b, "<li class=\"colour\">%s</li>", colour)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func runParams(seed source.Seed) Params {
	return Params{
		Seeds:              []source.Seed{seed},
		MaxListPages:       1,
		MaxProductsPerSeed: 50,
		Concurrency:        3,
		MaxRetries:         0,
		RetryDelay:         1,
	}
}

func TestRunMergesVariantsByCanonicalKey(t *testing.T) {
	listURL := "https://shop.example/collection/dresses"
	fetcher := newFakeFetcher(map[string]string{
		listURL: listHTML("/product/alpha", "/product/alpha-red", "/product/beta"),
		"https://shop.example/product/alpha": detailHTML(
			"ALPHA-1", "Alpha Dress", "40.00", "https://img.example/products/alpha.jpg",
			[]string{"S", "M"}, []string{"Red"}),
		"https://shop.example/product/alpha-red": detailHTML(
			"ALPHA-1", "Alpha Dress", "40.00", "https://img.example/products/alpha-red.jpg",
			[]string{"M", "L"}, []string{"Blue"}),
		"https://shop.example/product/beta": detailHTML(
			"BETA-2", "Beta Skirt", "25.50", "https://img.example/products/beta.jpg",
			[]string{"S"}, []string{"Black"}),
	})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	summary, err := eng.Run(context.Background(), runParams(source.Seed{
		URL: listURL, Gender: "women", Category: "dresses",
	}))
	require.NoError(t, err)

	// Two variant URLs share one SKU, so three detail pages collapse
	// into two products.
	assert.Equal(t, 1, summary.ListPages)
	assert.Equal(t, 3, summary.DetailPages)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, store.Len())

	alpha, ok := store.Get(catalog.CanonicalKey("teststore", "ALPHA-1", ""))
	require.True(t, ok)
	assert.Equal(t, "Alpha Dress", alpha.Title)
	require.NotNil(t, alpha.Price)
	assert.Equal(t, 40.00, *alpha.Price)
	assert.Equal(t, "GBP", alpha.Currency)
	assert.Equal(t, "women", alpha.Gender)
	assert.Equal(t, "dresses", alpha.Category)
	assert.ElementsMatch(t, []string{"S", "M", "L"}, alpha.Sizes)
	assert.ElementsMatch(t, []string{"Red", "Blue"}, alpha.Colors)
	assert.Len(t, alpha.Images, 2)
	require.NotNil(t, alpha.InStock)
	assert.True(t, *alpha.InStock)
}

func TestRunPaginationStopsAtMaxListPages(t *testing.T) {
	page1 := "https://shop.example/collection/shoes"
	page2 := "https://shop.example/collection/shoes?page=2"
	fetcher := newFakeFetcher(map[string]string{
		page1: listHTML("/product/shoe-one"),
		page2: listHTML("/product/shoe-two"),
		"https://shop.example/product/shoe-one": detailHTML(
			"SHOE-1", "Shoe One", "80.00", "https://img.example/products/shoe1.jpg", nil, nil),
		"https://shop.example/product/shoe-two": detailHTML(
			"SHOE-2", "Shoe Two", "85.00", "https://img.example/products/shoe2.jpg", nil, nil),
	})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	params := runParams(source.Seed{URL: page1, Category: "shoes"})
	params.MaxListPages = 2
	summary, err := eng.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ListPages)
	assert.Equal(t, 1, fetcher.callCount(page1))
	assert.Equal(t, 1, fetcher.callCount(page2))
	assert.Equal(t, 0, fetcher.callCount("https://shop.example/collection/shoes?page=3"))
	assert.Equal(t, 2, store.Len())
}

func TestRunDedupsVariantTaskURLs(t *testing.T) {
	listURL := "https://shop.example/collection/coats"
	gamma := detailHTML("GAMMA-3", "Gamma Coat", "120.00",
		"https://img.example/products/gamma.jpg", []string{"M"}, nil)
	fetcher := newFakeFetcher(map[string]string{
		listURL: listHTML("/product/gamma?colcode=123", "/product/gamma"),
		"https://shop.example/product/gamma?colcode=123": gamma,
		"https://shop.example/product/gamma":             gamma,
	})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	summary, err := eng.Run(context.Background(), runParams(source.Seed{URL: listURL}))
	require.NoError(t, err)

	// The two links differ only by a variant parameter; exactly one
	// detail fetch happens.
	total := fetcher.callCount("https://shop.example/product/gamma?colcode=123") +
		fetcher.callCount("https://shop.example/product/gamma")
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, summary.DetailPages)
	assert.Equal(t, 1, store.Len())
}

func TestRunCapsProductsPerSeed(t *testing.T) {
	listURL := "https://shop.example/collection/knitwear"
	fetcher := newFakeFetcher(map[string]string{
		listURL: listHTML("/product/knit-one", "/product/knit-two", "/product/knit-three"),
		"https://shop.example/product/knit-one": detailHTML(
			"KNIT-1", "Knit One", "30.00", "https://img.example/products/k1.jpg", nil, nil),
		"https://shop.example/product/knit-two": detailHTML(
			"KNIT-2", "Knit Two", "32.00", "https://img.example/products/k2.jpg", nil, nil),
		"https://shop.example/product/knit-three": detailHTML(
			"KNIT-3", "Knit Three", "34.00", "https://img.example/products/k3.jpg", nil, nil),
	})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	params := runParams(source.Seed{URL: listURL})
	params.MaxProductsPerSeed = 2
	summary, err := eng.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.DetailPages)
	assert.Equal(t, 2, store.Len())
}

func TestRunSkipsProductsMissingMandatoryFields(t *testing.T) {
	listURL := "https://shop.example/collection/sale"
	fetcher := newFakeFetcher(map[string]string{
		listURL: listHTML("/product/unpriced"),
		// No structured offer and no DOM price node; mandatory price
		// stays nil after every strategy.
		"https://shop.example/product/unpriced": detailHTML(
			"UNP-9", "Unpriced Jacket", "", "https://img.example/products/unp.jpg", nil, nil),
	})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	summary, err := eng.Run(context.Background(), runParams(source.Seed{URL: listURL}))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkipReasons["missing price"])
	assert.Equal(t, 0, store.Len())
}

func TestRunRetriesTransientFetchFailures(t *testing.T) {
	detailURL := "https://shop.example/product/flaky"
	fetcher := newFakeFetcher(map[string]string{
		detailURL: detailHTML("FLK-1", "Flaky Jumper", "45.00",
			"https://img.example/products/flk.jpg", nil, nil),
	})
	fetcher.failures[detailURL] = 2
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	params := runParams(source.Seed{URL: detailURL})
	params.MaxRetries = 2
	summary, err := eng.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 3, fetcher.callCount(detailURL))
	assert.Equal(t, 0, summary.TasksFailed)
	assert.Equal(t, 1, store.Len())
}

func TestRunDoesNotRetryNonRetryableFailures(t *testing.T) {
	detailURL := "https://shop.example/product/forbidden"
	fetcher := newFakeFetcher(map[string]string{})
	fetcher.denied[detailURL] = true
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	params := runParams(source.Seed{URL: detailURL})
	params.MaxRetries = 3
	summary, err := eng.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.callCount(detailURL))
	assert.Equal(t, 1, summary.TasksFailed)
	assert.Equal(t, 0, store.Len())
}

func TestRunDropsUnclassifiableSeeds(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{})
	store := sink.NewMemorySink()
	eng := New(testAdapter(), fetcher, store)

	summary, err := eng.Run(context.Background(), runParams(source.Seed{
		URL: "https://shop.example/about-us",
	}))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ListPages)
	assert.Equal(t, 0, summary.DetailPages)
	assert.Equal(t, 0, store.Len())
}

func TestSummaryTopSkipReasons(t *testing.T) {
	s := &Summary{SkipReasons: map[string]int{
		"missing price": 5,
		"missing image": 2,
		"missing title": 1,
	}}
	top := s.TopSkipReasons(2)
	assert.Equal(t, []string{"missing price", "missing image"}, top)
}
