package scrape

import "fmt"

// FetchError reports a failed page download: connection failure, timeout or a
// non-2xx response. It is transient from the caller's point of view; the next
// cycle simply tries again.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %q: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports a page that does not match the expected template:
// no offer prices, an unparsable price, or a missing title element.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extracting product data: %s: %v", e.Reason, e.Err)
	}
	return "extracting product data: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }
