// Package domain contains the run report for the sourcing pipeline.
package domain

import (
	"time"

	allocationDomain "github.com/fd1az/fba-sourcing/business/allocation/domain"
	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	profitDomain "github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

// Input is one pipeline run request. Budget is raw text so it can be
// rejected before anything is fetched.
type Input struct {
	Candidates []catalogDomain.CandidateRef
	Budget     string
	Overrides  profitDomain.CostOverrides
}

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Report collects every stage's output. Stages that did not run are nil.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Budget     money.Amount

	Enrichment    *catalogDomain.Batch
	Profitability *profitDomain.Batch
	Demand        []demandDomain.DemandRecord
	Join          allocationDomain.JoinResult
	Plan          *allocationDomain.Plan
	Inventory     []allocationDomain.InventoryLine
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counter is a named figure for the run summary.
type Counter struct {
	Stage string
	Name  string
	Value int
}

var CounterHeader = []string{"stage", "counter", "value"}

func (c Counter) Values() []string {
	return []string{c.Stage, c.Name, tabular.FormatInt(c.Value)}
}

// Counters flattens the stage counters in pipeline order.
func (r *Report) Counters() []Counter {
	var out []Counter
	if b := r.Enrichment; b != nil {
		s := b.Stats
		out = append(out,
			Counter{"enrichment", "attempted", s.Attempted},
			Counter{"enrichment", "completed", s.Completed},
			Counter{"enrichment", "analyzed", s.Analyzed},
			Counter{"enrichment", "fallback_success", s.FallbackSuccess},
			Counter{"enrichment", "skipped_invalid", s.SkippedInvalid},
			Counter{"enrichment", "skipped_no_data", s.SkippedNoData},
			Counter{"enrichment", "discarded", s.Discarded},
		)
	}
	if b := r.Profitability; b != nil {
		s := b.Stats
		out = append(out,
			Counter{"profitability", "evaluated", s.Evaluated},
			Counter{"profitability", "viable", s.Viable},
			Counter{"profitability", "invalid_price", s.InvalidPrice},
			Counter{"profitability", "non_positive_roi", s.NonPositiveROI},
		)
	}
	if r.Demand != nil {
		tiers := map[demandDomain.Tier]int{}
		for _, d := range r.Demand {
			tiers[d.Tier]++
		}
		out = append(out,
			Counter{"demand", "high", tiers[demandDomain.TierHigh]},
			Counter{"demand", "medium", tiers[demandDomain.TierMedium]},
			Counter{"demand", "low", tiers[demandDomain.TierLow]},
		)
	}
	if p := r.Plan; p != nil {
		out = append(out,
			Counter{"allocation", "candidates", len(r.Join.Candidates)},
			Counter{"allocation", "unmatched", len(r.Join.Unmatched)},
			Counter{"allocation", "excluded_tier", len(p.Excluded)},
			Counter{"allocation", "lines", len(p.Lines)},
			Counter{"allocation", "funded", len(p.Funded())},
			Counter{"inventory", "lines", len(r.Inventory)},
		)
	}
	return out
}
