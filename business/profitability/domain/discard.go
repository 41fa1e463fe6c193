package domain

import "github.com/shopspring/decimal"

// DiscardReason explains why a record left the profitability stage.
type DiscardReason string

const (
	ReasonInvalidPrice   DiscardReason = "invalid_price"
	ReasonNonPositiveROI DiscardReason = "non_positive_roi"
)

// Discard is one visible exclusion.
type Discard struct {
	ID     string
	Title  string
	Reason DiscardReason
	ROI    *decimal.Decimal // set for ROI discards
}

// DiscardHeader names the tabular columns of the discard log.
var DiscardHeader = []string{"id", "title", "reason", "roi"}

func (d Discard) Values() []string {
	roi := ""
	if d.ROI != nil {
		roi = d.ROI.StringFixed(2)
	}
	return []string{d.ID, d.Title, string(d.Reason), roi}
}

// Stats counts how the stage disposed of its input.
type Stats struct {
	Evaluated      int
	Viable         int
	InvalidPrice   int
	NonPositiveROI int
}

// Batch is the stage output. Viable keeps input order.
type Batch struct {
	Viable   []ProfitabilityRecord
	Discards []Discard
	Stats    Stats
}

// DiscardedIDs lists the identifiers discarded for reason, in input order.
func (b *Batch) DiscardedIDs(reason DiscardReason) []string {
	var ids []string
	for _, d := range b.Discards {
		if d.Reason == reason {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
