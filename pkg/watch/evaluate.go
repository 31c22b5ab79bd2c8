package watch

import (
	"github.com/mwojtas/cenowatch/pkg/scrape"
	"github.com/mwojtas/cenowatch/pkg/store"
)

// Decision is the outcome of comparing a fresh extraction against an item's
// threshold.
type Decision struct {
	ShouldNotify bool
	NewPrice     int
}

// Evaluate decides whether a notification fires and what price to store.
//
// The threshold is a one-shot alert condition, not a latched state: the mail
// fires whenever the lowest offer is strictly below the threshold, so an item
// that stays below its threshold produces a mail on every cycle. An equal
// price does not notify. The stored price tracks the latest successful read
// unconditionally, independent of the notify decision.
func Evaluate(item store.Item, ex scrape.Extraction) Decision {
	return Decision{
		ShouldNotify: ex.LowestPrice < item.ThresholdPrice,
		NewPrice:     ex.LowestPrice,
	}
}
