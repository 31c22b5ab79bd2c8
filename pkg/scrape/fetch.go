package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT x.y; Win64; x64; rv:10.0) Gecko/20100101 Firefox/10.0"

// Fetcher downloads product pages. It performs a single unauthenticated GET
// per call with a bounded timeout; there is no retry and no backoff — a
// failed fetch is reported and the item is simply checked again next cycle.
type Fetcher struct {
	c *colly.Collector
}

func NewFetcher(timeout time.Duration) *Fetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	// cookies caused cross-request interference in concurrent use
	c.DisableCookies()
	c.SetRequestTimeout(timeout)
	return &Fetcher{c: c}
}

// Fetch retrieves the raw document at url. Any transport failure or non-2xx
// status is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	// Clone per call: collector callbacks are registered globally, so a
	// shared collector would mix up responses between concurrent fetches.
	c := f.c.Clone()

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})

	var ferr *FetchError
	c.OnError(func(r *colly.Response, err error) {
		ferr = &FetchError{URL: url, StatusCode: r.StatusCode, Err: err}
	})

	if err := c.Visit(url); err != nil {
		if ferr != nil {
			return nil, ferr
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	c.Wait()

	if ferr != nil {
		return nil, ferr
	}
	if body == nil {
		return nil, &FetchError{URL: url, Err: errors.New("empty response")}
	}
	return body, nil
}
