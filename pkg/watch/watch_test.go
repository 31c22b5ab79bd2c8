package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mwojtas/cenowatch/pkg/scrape"
	"github.com/mwojtas/cenowatch/pkg/store"
)

// pricePage builds a minimal page in the source site's 2020 template with
// one offer per price.
func pricePage(title string, prices ...int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<h1 class="product-top-2020__product-info__name">%s</h1>`, title)
	for _, p := range prices {
		fmt.Fprintf(&b, `<div class="product-offer-2020__product"><span class="value">%d</span></div>`, p)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// seqFetcher serves a per-URL sequence of pages, repeating the last one once
// the sequence is exhausted. A nil sequence simulates an unreachable URL.
type seqFetcher struct {
	mu    sync.Mutex
	pages map[string][]string
	calls map[string]int
}

func newSeqFetcher() *seqFetcher {
	return &seqFetcher{pages: make(map[string][]string), calls: make(map[string]int)}
}

func (f *seqFetcher) set(url string, pages ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = pages
}

func (f *seqFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.pages[url]
	if len(seq) == 0 {
		return nil, &scrape.FetchError{URL: url, Err: fmt.Errorf("connection refused")}
	}
	i := f.calls[url]
	f.calls[url]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return []byte(seq[i]), nil
}

type sentMail struct {
	Recipient string
	Name      string
	Price     int
	URL       string
}

// recordingNotifier captures sent mail and can be told to fail for a given
// recipient.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failFor: make(map[string]error)}
}

func (n *recordingNotifier) Send(ctx context.Context, recipient, name string, lowestPrice int, sourceURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[recipient]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentMail{Recipient: recipient, Name: name, Price: lowestPrice, URL: sourceURL})
	return nil
}

func (n *recordingNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// hookFetcher runs a hook after each successful fetch, before the pipeline
// continues. Used to interleave deletions with an in-flight check.
type hookFetcher struct {
	inner Fetcher
	hook  func()
}

func (h *hookFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	b, err := h.inner.Fetch(ctx, url)
	if err == nil && h.hook != nil {
		h.hook()
	}
	return b, err
}

type testEnv struct {
	store    *store.SQLiteStore
	fetcher  *seqFetcher
	notifier *recordingNotifier
	checker  *Checker
	owner    store.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "checker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	owner := store.User{ID: uuid.New().String(), Email: "ania@example.com"}
	require.NoError(t, s.CreateUser(context.Background(), owner))

	fetcher := newSeqFetcher()
	notifier := newRecordingNotifier()
	checker := NewChecker(s, fetcher, scrape.NewExtractor(scrape.MarkersForTemplate("2020")), notifier, 4, testLogger())

	return &testEnv{store: s, fetcher: fetcher, notifier: notifier, checker: checker, owner: owner}
}

func (e *testEnv) addItem(t *testing.T, url string, lastPrice, threshold int) store.Item {
	t.Helper()
	item := store.Item{
		ID:             uuid.New().String(),
		SourceURL:      url,
		DisplayName:    "Widget",
		LastKnownPrice: lastPrice,
		ThresholdPrice: threshold,
		OwnerID:        e.owner.ID,
	}
	require.NoError(t, e.store.CreateItem(context.Background(), item))
	return item
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
