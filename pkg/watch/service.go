package watch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mwojtas/cenowatch/pkg/store"
)

// CreationError wraps the fetch or extraction failure that prevented an item
// from being created. It is the only error surfaced synchronously to the
// actor that submitted the URL; nothing is persisted when it occurs.
type CreationError struct {
	URL string
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("creating item for %q: %v", e.URL, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// CreateAndCheckNow validates a new tracked item by fetching and extracting
// its page first; only a URL that yields a usable extraction becomes an
// item. The extraction supplies the display name and the initial price, and
// the item is then run through the pipeline once synchronously so the
// owner's first threshold check doesn't wait for the next tick.
func (c *Checker) CreateAndCheckNow(ctx context.Context, url string, threshold int, ownerID string) (*store.Item, error) {
	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &CreationError{URL: url, Err: err}
	}
	ex, err := c.extractor.Extract(page)
	if err != nil {
		return nil, &CreationError{URL: url, Err: err}
	}

	item := store.Item{
		ID:             uuid.New().String(),
		SourceURL:      url,
		DisplayName:    ex.Name,
		LastKnownPrice: ex.LowestPrice,
		ThresholdPrice: threshold,
		OwnerID:        ownerID,
	}
	if err := c.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	c.logger.Info("item created", "item", item.ID, "name", item.DisplayName,
		"price", item.LastKnownPrice, "threshold", item.ThresholdPrice)

	c.CheckItem(ctx, item)

	return c.store.GetItem(ctx, item.ID)
}

// UpdateThresholdAndCheckNow persists the new threshold and immediately
// re-checks the item, so lowering the threshold below the current price (or
// raising it above) takes effect without waiting for the next tick.
func (c *Checker) UpdateThresholdAndCheckNow(ctx context.Context, itemID string, newThreshold int) error {
	if err := c.store.UpdateThreshold(ctx, itemID, newThreshold); err != nil {
		return err
	}
	item, err := c.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	c.CheckItem(ctx, *item)
	return nil
}

// DeleteItem removes the item immediately and unconditionally. An in-flight
// check of the item may complete once more, but it will not mail about or
// persist a price for an item it observes as deleted.
func (c *Checker) DeleteItem(ctx context.Context, itemID string) error {
	return c.store.DeleteItem(ctx, itemID)
}

// CheckNow runs one full on-demand cycle over all tracked items.
func (c *Checker) CheckNow(ctx context.Context) Report {
	return c.RunCycle(ctx)
}
