package watch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCycleIsolatesFailures(t *testing.T) {
	// One item's broken URL must not stop the others from updating.
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.set("https://example.com/a", pricePage("A", 500))
	env.fetcher.set("https://example.com/c", pricePage("C", 300))

	a := env.addItem(t, "https://example.com/a", 600, 100)
	b := env.addItem(t, "https://example.com/broken", 600, 100)
	c := env.addItem(t, "https://example.com/c", 600, 400)

	report := env.checker.RunCycle(ctx)

	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Total())
	assert.Len(t, report.Succeeded, 2)
	require.Len(t, report.FetchFailed, 1)
	assert.Equal(t, b.ID, report.FetchFailed[0].ItemID)

	gotA, err := env.store.GetItem(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, gotA.LastKnownPrice)

	gotB, err := env.store.GetItem(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 600, gotB.LastKnownPrice, "failed item keeps its stale price")

	gotC, err := env.store.GetItem(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, gotC.LastKnownPrice)

	// only C crossed its threshold
	require.Equal(t, 1, env.notifier.sentCount())
	assert.Equal(t, 300, env.notifier.sent[0].Price)
}

func TestRunCycleClassifiesOutcomes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.set("https://example.com/ok", pricePage("OK", 500))
	env.fetcher.set("https://example.com/garbled", "<html><body>not a product page</body></html>")

	env.addItem(t, "https://example.com/ok", 600, 100)
	env.addItem(t, "https://example.com/garbled", 600, 100)
	env.addItem(t, "https://example.com/unreachable", 600, 100)

	report := env.checker.RunCycle(ctx)

	assert.Len(t, report.Succeeded, 1)
	assert.Len(t, report.FetchFailed, 1)
	assert.Len(t, report.ExtractFailed, 1)
	assert.Empty(t, report.NotifyFailed)
	assert.Empty(t, report.Skipped)
}

func TestReportSummaryCoversAllBuckets(t *testing.T) {
	var r Report
	r.add(Outcome{Stage: StageOK})
	r.add(Outcome{Stage: StageFetchFailed})
	r.add(Outcome{Stage: StageExtractFailed})
	r.add(Outcome{Stage: StageNotifyFailed})
	r.add(Outcome{Stage: StageStoreFailed})
	r.add(Outcome{Stage: StageSkipped})

	assert.Equal(t,
		"checked 6 item(s): 1 ok, 1 fetch-failed, 1 extract-failed, 1 notify-failed, 1 store-failed, 1 skipped",
		r.Summary())
}

func TestRunCycleEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	report := env.checker.RunCycle(context.Background())

	require.NoError(t, report.Err)
	assert.Zero(t, report.Total())
}

func TestRunCycleRecordsLastCycleTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, err := env.store.LastCycleAt(ctx)
	require.NoError(t, err)
	require.True(t, before.IsZero())

	env.checker.RunCycle(ctx)

	after, err := env.store.LastCycleAt(ctx)
	require.NoError(t, err)
	assert.False(t, after.IsZero())
}

func TestDeletedItemNeverProcessedAgain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const url = "https://example.com/widget"
	env.fetcher.set(url, pricePage("Widget", 90))
	item := env.addItem(t, url, 110, 100)

	env.checker.RunCycle(ctx)
	require.Equal(t, 1, env.notifier.sentCount())

	require.NoError(t, env.checker.DeleteItem(ctx, item.ID))

	items, err := env.store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	report := env.checker.RunCycle(ctx)
	assert.Zero(t, report.Total())
	assert.Equal(t, 1, env.notifier.sentCount(), "no further mail after deletion")
}
