// Package watch runs the price-check pipeline over all tracked items: fetch
// the product page, extract the lowest offer, compare against the owner's
// threshold, mail the owner on a drop, and persist the fresh price.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mwojtas/cenowatch/pkg/scrape"
	"github.com/mwojtas/cenowatch/pkg/store"
)

// Fetcher downloads a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor reads the product name and lowest offer price out of a page.
type Extractor interface {
	Extract(page []byte) (scrape.Extraction, error)
}

// Notifier delivers one price-drop message to one recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, name string, lowestPrice int, sourceURL string) error
}

// Stage records how far an item's pipeline got.
type Stage int

const (
	StageOK Stage = iota
	StageFetchFailed
	StageExtractFailed
	StageNotifyFailed
	StageStoreFailed
	// StageSkipped means the pipeline did not run to completion for a
	// non-error reason: another pipeline for the same item was already in
	// flight, or the item was deleted mid-check.
	StageSkipped
)

func (s Stage) String() string {
	switch s {
	case StageOK:
		return "ok"
	case StageFetchFailed:
		return "fetch-failed"
	case StageExtractFailed:
		return "extract-failed"
	case StageNotifyFailed:
		return "notify-failed"
	case StageStoreFailed:
		return "store-failed"
	case StageSkipped:
		return "skipped"
	}
	return "unknown"
}

// Outcome is the per-item result of one pipeline run. Failures never
// propagate past the item; they are reported here and aggregated into the
// cycle report.
type Outcome struct {
	ItemID   string
	Stage    Stage
	Notified bool
	Err      error
}

// Checker runs the per-item pipeline and owns the at-most-one-pipeline-per-
// item guarantee across periodic and on-demand triggers.
type Checker struct {
	store     store.Store
	fetcher   Fetcher
	extractor Extractor
	notifier  Notifier
	logger    *slog.Logger
	workers   int

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewChecker(s store.Store, f Fetcher, e Extractor, n Notifier, workers int, logger *slog.Logger) *Checker {
	if workers < 1 {
		workers = 1
	}
	return &Checker{
		store:     s,
		fetcher:   f,
		extractor: e,
		notifier:  n,
		logger:    logger,
		workers:   workers,
		inflight:  make(map[string]struct{}),
	}
}

func (c *Checker) tryAcquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Checker) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

// CheckItem runs one item through fetch → extract → evaluate → notify →
// persist. On fetch, extraction or notify failure the stored price is left
// untouched; stale-but-valid beats unknown. If another check of the same
// item is already running, this one is skipped.
func (c *Checker) CheckItem(ctx context.Context, item store.Item) Outcome {
	if !c.tryAcquire(item.ID) {
		return Outcome{ItemID: item.ID, Stage: StageSkipped}
	}
	defer c.release(item.ID)

	page, err := c.fetcher.Fetch(ctx, item.SourceURL)
	if err != nil {
		c.logger.Warn("fetch failed", "item", item.ID, "url", item.SourceURL, "error", err)
		return Outcome{ItemID: item.ID, Stage: StageFetchFailed, Err: err}
	}

	ex, err := c.extractor.Extract(page)
	if err != nil {
		c.logger.Warn("extraction failed", "item", item.ID, "url", item.SourceURL, "error", err)
		return Outcome{ItemID: item.ID, Stage: StageExtractFailed, Err: err}
	}

	// Re-read the item: the owner may have edited the threshold or deleted
	// the item while the fetch was in flight. The notify decision must use
	// a threshold that was valid during this cycle, and a deleted item must
	// not be mailed about.
	fresh, err := c.store.GetItem(ctx, item.ID)
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{ItemID: item.ID, Stage: StageSkipped}
	}
	if err != nil {
		c.logger.Warn("reading item failed", "item", item.ID, "error", err)
		return Outcome{ItemID: item.ID, Stage: StageStoreFailed, Err: err}
	}

	d := Evaluate(*fresh, ex)

	if d.ShouldNotify {
		recipient, err := c.store.RecipientFor(ctx, fresh.OwnerID)
		if err != nil {
			c.logger.Warn("resolving recipient failed", "item", item.ID, "owner", fresh.OwnerID, "error", err)
			return Outcome{ItemID: item.ID, Stage: StageNotifyFailed, Err: err}
		}
		if err := c.notifier.Send(ctx, recipient, fresh.DisplayName, ex.LowestPrice, fresh.SourceURL); err != nil {
			c.logger.Warn("notification failed", "item", item.ID, "recipient", recipient, "error", err)
			return Outcome{ItemID: item.ID, Stage: StageNotifyFailed, Err: err}
		}
		c.logger.Info("price drop mailed", "item", item.ID, "name", fresh.DisplayName,
			"price", ex.LowestPrice, "threshold", fresh.ThresholdPrice)
	}

	if err := c.store.UpdateLastKnownPrice(ctx, item.ID, d.NewPrice); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// deleted between the notify decision and the write
			return Outcome{ItemID: item.ID, Stage: StageSkipped, Notified: d.ShouldNotify}
		}
		c.logger.Warn("persisting price failed", "item", item.ID, "error", err)
		return Outcome{ItemID: item.ID, Stage: StageStoreFailed, Err: err}
	}

	return Outcome{ItemID: item.ID, Stage: StageOK, Notified: d.ShouldNotify}
}
