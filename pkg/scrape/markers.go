package scrape

import "fmt"

// Markers holds the CSS selectors that locate product data on the source
// site's pages. The site versions its CSS class names by template generation
// (e.g. "product-offer-2020__product"), so a site redesign silently breaks
// matching until the marker strings are updated. That fragility is inherent
// to scraping a site we don't control; keeping the selectors in configuration
// means a template bump is a config change, not a code change.
type Markers struct {
	// Offer matches one seller-offer block. Every tracked page is expected
	// to contain at least one.
	Offer string
	// Price matches the integer price element inside an offer block.
	Price string
	// Title matches the single product-title element on the page.
	Title string
}

// MarkersForTemplate returns the selectors for a given template generation,
// e.g. "2020".
func MarkersForTemplate(gen string) Markers {
	return Markers{
		Offer: fmt.Sprintf(".product-offer-%s__product", gen),
		Price: ".value",
		Title: fmt.Sprintf(".product-top-%s__product-info__name", gen),
	}
}
