package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction is the structured result of reading one product page: the
// product's display name and the lowest price among all listed seller
// offers, in the minor currency unit.
type Extraction struct {
	Name        string
	LowestPrice int
}

// Extractor pulls product data out of a fetched page. It is a pure function
// of the document and the configured markers; it never touches the network.
type Extractor struct {
	markers Markers
}

func NewExtractor(m Markers) *Extractor {
	return &Extractor{markers: m}
}

// Extract parses page and returns the product name and the minimum offer
// price. The whole extraction fails if the page has no offer-price elements,
// if any offer price doesn't parse as an integer, or if the title element is
// missing — a partially-understood page is treated as not understood at all,
// so stale stored prices are never overwritten with guesses.
func (e *Extractor) Extract(page []byte) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Extraction{}, &ExtractionError{Reason: "parsing document", Err: err}
	}

	var prices []int
	var perr *ExtractionError
	doc.Find(e.markers.Offer).EachWithBreak(func(_ int, offer *goquery.Selection) bool {
		text := strings.TrimSpace(offer.Find(e.markers.Price).First().Text())
		p, err := strconv.Atoi(text)
		if err != nil {
			perr = &ExtractionError{Reason: fmt.Sprintf("unparsable offer price %q", text), Err: err}
			return false
		}
		prices = append(prices, p)
		return true
	})
	if perr != nil {
		return Extraction{}, perr
	}
	if len(prices) == 0 {
		return Extraction{}, &ExtractionError{Reason: fmt.Sprintf("no offer elements matching %q", e.markers.Offer)}
	}

	title := doc.Find(e.markers.Title).First()
	if title.Length() == 0 {
		return Extraction{}, &ExtractionError{Reason: fmt.Sprintf("no title element matching %q", e.markers.Title)}
	}

	lowest := prices[0]
	for _, p := range prices[1:] {
		if p < lowest {
			lowest = p
		}
	}

	return Extraction{
		Name:        strings.TrimSpace(title.Text()),
		LowestPrice: lowest,
	}, nil
}
