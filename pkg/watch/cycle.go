package watch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report aggregates the per-item outcomes of one cycle. One item's failure
// never blocks another item; the report is the observable record of what
// happened instead of silent per-item logging.
type Report struct {
	Started       time.Time
	Finished      time.Time
	Succeeded     []Outcome
	FetchFailed   []Outcome
	ExtractFailed []Outcome
	NotifyFailed  []Outcome
	StoreFailed   []Outcome
	Skipped       []Outcome
	// Err is set only when the item list itself could not be read; no
	// pipelines ran in that case.
	Err error
}

// Total is the number of items the cycle attempted.
func (r Report) Total() int {
	return len(r.Succeeded) + len(r.FetchFailed) + len(r.ExtractFailed) +
		len(r.NotifyFailed) + len(r.StoreFailed) + len(r.Skipped)
}

// Summary renders a one-line account of the cycle covering every outcome
// bucket, so the counts always add up to Total.
func (r Report) Summary() string {
	return fmt.Sprintf("checked %d item(s): %d ok, %d fetch-failed, %d extract-failed, %d notify-failed, %d store-failed, %d skipped",
		r.Total(), len(r.Succeeded), len(r.FetchFailed), len(r.ExtractFailed),
		len(r.NotifyFailed), len(r.StoreFailed), len(r.Skipped))
}

func (r *Report) add(o Outcome) {
	switch o.Stage {
	case StageOK:
		r.Succeeded = append(r.Succeeded, o)
	case StageFetchFailed:
		r.FetchFailed = append(r.FetchFailed, o)
	case StageExtractFailed:
		r.ExtractFailed = append(r.ExtractFailed, o)
	case StageNotifyFailed:
		r.NotifyFailed = append(r.NotifyFailed, o)
	case StageStoreFailed:
		r.StoreFailed = append(r.StoreFailed, o)
	case StageSkipped:
		r.Skipped = append(r.Skipped, o)
	}
}

// RunCycle enumerates every tracked item across all users and runs each
// through the pipeline with a bounded worker pool. Item order is not
// significant and items share no state, so failures stay isolated per item.
func (c *Checker) RunCycle(ctx context.Context) Report {
	report := Report{Started: time.Now()}

	items, err := c.store.ListItems(ctx)
	if err != nil {
		c.logger.Error("listing items failed, skipping cycle", "error", err)
		report.Err = err
		report.Finished = time.Now()
		return report
	}

	outcomes := make([]Outcome, len(items))
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			outcomes[i] = c.CheckItem(ctx, item)
			return nil
		})
	}
	g.Wait()

	for _, o := range outcomes {
		report.add(o)
	}
	report.Finished = time.Now()

	if err := c.store.SetLastCycleAt(ctx, report.Finished); err != nil {
		c.logger.Warn("recording cycle time failed", "error", err)
	}

	c.logger.Info("cycle finished",
		"items", report.Total(),
		"succeeded", len(report.Succeeded),
		"fetch_failed", len(report.FetchFailed),
		"extract_failed", len(report.ExtractFailed),
		"notify_failed", len(report.NotifyFailed),
		"store_failed", len(report.StoreFailed),
		"skipped", len(report.Skipped),
		"took", report.Finished.Sub(report.Started),
	)

	return report
}
