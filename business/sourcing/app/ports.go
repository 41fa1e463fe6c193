// Package app contains the sourcing pipeline and its port definitions.
package app

import (
	"context"

	allocationDomain "github.com/fd1az/fba-sourcing/business/allocation/domain"
	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	profitDomain "github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
)

// Resolver enriches candidates with market data.
type Resolver interface {
	Resolve(ctx context.Context, candidates []catalogDomain.CandidateRef) (*catalogDomain.Batch, error)
}

// ProfitEstimator scores enriched records.
type ProfitEstimator interface {
	Estimate(ctx context.Context, records []catalogDomain.ProductRecord, overrides profitDomain.CostOverrides) *profitDomain.Batch
}

// DemandEstimator classifies enriched records.
type DemandEstimator interface {
	Estimate(ctx context.Context, records []catalogDomain.ProductRecord) []demandDomain.DemandRecord
}

// Allocator turns candidates into a purchase plan.
type Allocator interface {
	Allocate(ctx context.Context, candidates []allocationDomain.Candidate, budget money.Amount) (*allocationDomain.Plan, error)
}

// Reporter publishes a finished run.
type Reporter interface {
	Report(ctx context.Context, report *domain.Report) error
}
