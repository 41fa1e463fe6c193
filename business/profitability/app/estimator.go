// Package app contains the profitability estimator.
package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

const instrumentationName = "github.com/fd1az/fba-sourcing/business/profitability"

// Estimator applies a fee model to enriched records.
type Estimator struct {
	model    domain.FeeModel
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	discards metric.Int64Counter
}

// NewEstimator creates an estimator for model.
func NewEstimator(model domain.FeeModel, log logger.LoggerInterface) (*Estimator, error) {
	discards, err := otel.Meter(instrumentationName).Int64Counter(
		"profitability_discards_total",
		metric.WithDescription("Records excluded from allocation by reason"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &Estimator{
		model:    model,
		logger:   log,
		tracer:   otel.Tracer(instrumentationName),
		discards: discards,
	}, nil
}

// Model returns the fee model in use.
func (e *Estimator) Model() domain.FeeModel {
	return e.model
}

// Estimate evaluates every record. Viable records keep input order; every
// exclusion is returned in Discards and logged.
func (e *Estimator) Estimate(ctx context.Context, records []catalogDomain.ProductRecord, overrides domain.CostOverrides) *domain.Batch {
	ctx, span := e.tracer.Start(ctx, "profitability.estimate",
		trace.WithAttributes(
			attribute.Int("records", len(records)),
			attribute.Int("overrides", len(overrides)),
		),
	)
	defer span.End()

	batch := &domain.Batch{}
	for _, rec := range records {
		batch.Stats.Evaluated++

		out, discard := e.model.Evaluate(rec, overrides)
		if discard != nil {
			batch.Discards = append(batch.Discards, *discard)
			switch discard.Reason {
			case domain.ReasonInvalidPrice:
				batch.Stats.InvalidPrice++
			case domain.ReasonNonPositiveROI:
				batch.Stats.NonPositiveROI++
			}
			e.discards.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(discard.Reason))))
			continue
		}

		batch.Viable = append(batch.Viable, out)
		batch.Stats.Viable++
	}

	span.SetAttributes(
		attribute.Int("viable", batch.Stats.Viable),
		attribute.Int("invalid_price", batch.Stats.InvalidPrice),
		attribute.Int("non_positive_roi", batch.Stats.NonPositiveROI),
	)

	if batch.Stats.InvalidPrice > 0 {
		e.logger.Warn(ctx, "records skipped for invalid price",
			"count", batch.Stats.InvalidPrice,
			"ids", batch.DiscardedIDs(domain.ReasonInvalidPrice))
	}
	if batch.Stats.NonPositiveROI > 0 {
		e.logger.Info(ctx, "records discarded for non-positive roi",
			"count", batch.Stats.NonPositiveROI,
			"ids", batch.DiscardedIDs(domain.ReasonNonPositiveROI))
	}
	e.logger.Info(ctx, "profitability estimated",
		"evaluated", batch.Stats.Evaluated,
		"viable", batch.Stats.Viable)

	return batch
}
