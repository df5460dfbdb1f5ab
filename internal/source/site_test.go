package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylehunt/catalogworker/config"
	"stylehunt/catalogworker/internal/extract"
)

func listPage(t *testing.T, url, html string) *extract.Page {
	t.Helper()
	page, err := extract.NewPage(url, strings.NewReader(html))
	require.NoError(t, err)
	return page
}

func TestRegistry(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	require.Len(t, adapters, 3)

	ids := make(map[string]bool)
	for _, a := range adapters {
		ids[a.ID()] = true
		assert.NotEmpty(t, a.Store())
		assert.NotEmpty(t, a.StoreName())
		assert.NotEmpty(t, a.Seeds())
		assert.NotEmpty(t, a.DefaultCurrency())
		// Every adapter must know how to find the mandatory fields.
		for _, field := range []string{FieldTitle, FieldPrice, FieldImage} {
			assert.NotEmpty(t, a.FieldStrategies(field), "%s has no strategies for %s", a.ID(), field)
		}
	}
	assert.True(t, ids["brickworks"])
	assert.True(t, ids["threadbare"])
	assert.True(t, ids["velomoda"])
}

func TestClassify(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	brickworks := adapters[0]

	tests := []struct {
		url  string
		want PageKind
	}{
		{"https://www.brickworks.co.uk/shop/wool-overshirt-prd-100", KindDetail},
		{"https://www.brickworks.co.uk/men/sale", KindList},
		{"https://www.brickworks.co.uk/men/sale?page=3", KindList},
		{"https://www.brickworks.co.uk/help/returns", KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, brickworks.Classify(tt.url), tt.url)
	}
}

func TestListLinks(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	brickworks := adapters[0]

	html := `<html><body>
	<a data-testid="product-card-link" href="/shop/wool-overshirt-prd-100">one</a>
	<a data-testid="product-card-link" href="/shop/denim-jacket-prd-200">two</a>
	<a data-testid="product-card-link" href="/shop/wool-overshirt-prd-100">dup</a>
	<a data-testid="product-card-link" href="#top">anchor</a>
	<a href="/shop/not-a-card-prd-300">plain</a>
	</body></html>`

	page := listPage(t, "https://www.brickworks.co.uk/men/sale", html)
	links := brickworks.ListLinks(page)

	assert.Equal(t, []string{
		"https://www.brickworks.co.uk/shop/wool-overshirt-prd-100",
		"https://www.brickworks.co.uk/shop/denim-jacket-prd-200",
	}, links)
}

func TestNextPageURLFromLink(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	brickworks := adapters[0]

	html := `<html><body><a rel="next" href="/men/sale?page=2">next</a></body></html>`
	page := listPage(t, "https://www.brickworks.co.uk/men/sale", html)
	assert.Equal(t, "https://www.brickworks.co.uk/men/sale?page=2", brickworks.NextPageURL(page, 1))

	// Last page has no next link.
	page = listPage(t, "https://www.brickworks.co.uk/men/sale?page=9", `<html><body></body></html>`)
	assert.Equal(t, "", brickworks.NextPageURL(page, 9))
}

func TestNextPageURLFromParam(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	threadbare := adapters[1]
	require.Equal(t, "threadbare", threadbare.ID())

	page := listPage(t, "https://www.threadbare.com/collections/mens-clearance", `<html><body></body></html>`)
	assert.Equal(t, "https://www.threadbare.com/collections/mens-clearance?page=2", threadbare.NextPageURL(page, 1))

	page = listPage(t, "https://www.threadbare.com/collections/mens-clearance?page=2", `<html><body></body></html>`)
	assert.Equal(t, "https://www.threadbare.com/collections/mens-clearance?page=3", threadbare.NextPageURL(page, 2))
}

func TestBrickworksSKUFallsBackToURL(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	brickworks := adapters[0]

	// No structured data and no style-code attribute; the path segment
	// still identifies the product.
	page := listPage(t, "https://www.brickworks.co.uk/shop/wool-overshirt-prd-100", `<html><body><h1>Wool Overshirt</h1></body></html>`)
	ex := extract.Field(page, FieldSKU, brickworks.FieldStrategies(FieldSKU), brickworks.FieldValidator(FieldSKU))
	require.NotNil(t, ex)
	assert.Equal(t, "prd-100", ex.Value())
	assert.Equal(t, "url:style-code", ex.Strategy)
}

func TestStockPolicyPerAdapter(t *testing.T) {
	adapters := Registry(config.LoadConfig())
	assert.True(t, adapters[0].InStockWithoutSizes())
	assert.False(t, adapters[2].InStockWithoutSizes())
}
