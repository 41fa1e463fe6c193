// Package app contains the demand estimator service.
package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

// Estimator maps enriched records to demand records.
type Estimator struct {
	logger logger.LoggerInterface
	tracer trace.Tracer
}

func NewEstimator(log logger.LoggerInterface) *Estimator {
	return &Estimator{
		logger: log,
		tracer: otel.Tracer("github.com/fd1az/fba-sourcing/business/demand"),
	}
}

// Estimate returns one demand record per input record, in input order.
func (e *Estimator) Estimate(ctx context.Context, records []catalogDomain.ProductRecord) []domain.DemandRecord {
	ctx, span := e.tracer.Start(ctx, "demand.estimate",
		trace.WithAttributes(attribute.Int("records", len(records))))
	defer span.End()

	out := make([]domain.DemandRecord, 0, len(records))
	tiers := map[domain.Tier]int{}
	missingRank := 0
	for _, rec := range records {
		d := domain.Estimate(rec)
		if !rec.Rank.Present() {
			missingRank++
		}
		tiers[d.Tier]++
		out = append(out, d)
	}

	span.SetAttributes(
		attribute.Int("high", tiers[domain.TierHigh]),
		attribute.Int("medium", tiers[domain.TierMedium]),
		attribute.Int("low", tiers[domain.TierLow]),
	)
	e.logger.Info(ctx, "demand estimated",
		"high", tiers[domain.TierHigh],
		"medium", tiers[domain.TierMedium],
		"low", tiers[domain.TierLow],
		"missing_rank", missingRank)

	return out
}
