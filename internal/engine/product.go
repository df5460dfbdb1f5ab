package engine

import (
	"stylehunt/catalogworker/internal/catalog"
	"stylehunt/catalogworker/internal/extract"
	"stylehunt/catalogworker/internal/normalize"
	"stylehunt/catalogworker/internal/source"
)

// extractProduct turns one DETAIL page into a product fragment: every
// field runs its adapter strategies in priority order, raw values go
// through the normalizer, and the seed context the page cannot carry
// itself is threaded in from the task.
func (e *Engine) extractProduct(task Task, page *extract.Page, params Params) catalog.Product {
	field := func(name string) *extract.Extraction {
		return extract.Field(page, name, e.adapter.FieldStrategies(name), e.adapter.FieldValidator(name))
	}

	skuEx := field(source.FieldSKU)
	titleEx := field(source.FieldTitle)
	priceEx := field(source.FieldPrice)
	originalEx := field(source.FieldOriginalPrice)
	currencyEx := field(source.FieldCurrency)
	imageEx := field(source.FieldImage)
	imagesEx := field(source.FieldImages)
	colorsEx := field(source.FieldColors)
	sizesEx := field(source.FieldSizes)

	rawPrice := priceEx.Value()
	price := normalize.ParsePrice(rawPrice)
	originalPrice := normalize.ParsePrice(originalEx.Value())
	currency := normalize.DetectCurrency(currencyEx.Value(), rawPrice+" "+originalEx.Value(), e.adapter.DefaultCurrency())
	discount := normalize.DiscountPercent(price, originalPrice)

	// Primary image first, then the gallery; the primary falls back to
	// the first usable gallery image when its own strategies yielded
	// only rejected assets.
	var images []string
	imageSeen := make(map[string]bool)
	appendImage := func(raw string) {
		if canonical, ok := normalize.CanonicalImageURL(raw, page.URL); ok && !imageSeen[canonical] {
			imageSeen[canonical] = true
			images = append(images, canonical)
		}
	}
	appendImage(imageEx.Value())
	if imagesEx != nil {
		for _, raw := range imagesEx.Values {
			appendImage(raw)
		}
	}
	primaryImage := ""
	if len(images) > 0 {
		primaryImage = images[0]
	}

	var sizesRaw []string
	if sizesEx != nil {
		sizesRaw = sizesEx.Values
	}
	sizes := normalize.CleanSizes(sizesRaw)
	inStock := normalize.InferStock(sizes, page.Text(), e.adapter.InStockWithoutSizes())

	status := catalog.StatusActive
	if discount != nil {
		status = catalog.StatusOnSale
	}

	canonicalURL := catalog.CanonicalURL(page.URL)
	product := catalog.Product{
		CanonicalKey:    catalog.CanonicalKey(e.adapter.Store(), skuEx.Value(), page.URL),
		Store:           e.adapter.Store(),
		StoreName:       e.adapter.StoreName(),
		Title:           titleEx.Value(),
		Price:           price,
		Currency:        currency,
		OriginalPrice:   originalPrice,
		DiscountPercent: discount,
		Image:           primaryImage,
		ProductURL:      canonicalURL,
		Category:        task.Category,
		Gender:          task.Gender,
		InStock:         &inStock,
		Status:          status,
		SizesRaw:        sizesRaw,
		Sizes:           sizes,
		Images:          images,
	}
	if page.URL != canonicalURL {
		product.SaleURL = page.URL
	}
	if colorsEx != nil {
		product.Colors = colorsEx.Values
	}

	if params.Debug {
		event := e.log.Debug().Str("url", page.URL)
		for _, ex := range []*extract.Extraction{titleEx, priceEx, imageEx, sizesEx} {
			if ex != nil {
				event = event.Str(ex.Field+"_strategy", ex.Strategy)
			}
		}
		event.Msg("Field extraction provenance")
	}

	return product
}
