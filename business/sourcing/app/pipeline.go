package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	allocationApp "github.com/fd1az/fba-sourcing/business/allocation/app"
	allocationDomain "github.com/fd1az/fba-sourcing/business/allocation/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/internal/apm"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

const instrumentationName = "github.com/fd1az/fba-sourcing/business/sourcing"

// PipelineConfig holds run settings.
type PipelineConfig struct {
	RestockFactor decimal.Decimal
}

// Pipeline runs one batch end to end: enrich, score, classify, allocate.
// Each stage gets the previous stage's output and nothing else.
type Pipeline struct {
	resolver  Resolver
	profit    ProfitEstimator
	demand    DemandEstimator
	allocator Allocator
	reporters []Reporter
	restock   decimal.Decimal

	logger logger.LoggerInterface
	tracer apm.Tracer

	runCounter  metric.Int64Counter
	runDuration metric.Float64Histogram

	mu      sync.RWMutex
	lastRun *domain.Report
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithReporters publishes every finished run to the given reporters, in order.
func WithReporters(reporters ...Reporter) PipelineOption {
	return func(p *Pipeline) {
		p.reporters = append(p.reporters, reporters...)
	}
}

func NewPipeline(
	resolver Resolver,
	profit ProfitEstimator,
	demand DemandEstimator,
	allocator Allocator,
	cfg PipelineConfig,
	log logger.LoggerInterface,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if resolver == nil || profit == nil || demand == nil || allocator == nil {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "pipeline stage missing")
	}

	restock := cfg.RestockFactor
	if restock.IsZero() {
		restock = allocationApp.DefaultRestockFactor
	}

	p := &Pipeline{
		resolver:  resolver,
		profit:    profit,
		demand:    demand,
		allocator: allocator,
		restock:   restock,
		logger:    log,
		tracer:    apm.NewTracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(p)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	p.runCounter, err = meter.Int64Counter("sourcing_runs_total",
		metric.WithDescription("Pipeline runs by terminal status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run counter: %w", err)
	}
	p.runDuration, err = meter.Float64Histogram("sourcing_run_duration_seconds",
		metric.WithDescription("Pipeline run wall time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run histogram: %w", err)
	}

	return p, nil
}

// Run executes the pipeline. An invalid budget is rejected before any
// provider is called. On cancellation the partial report is returned with
// the context error; stages after enrichment are not run.
func (p *Pipeline) Run(ctx context.Context, in domain.Input) (*domain.Report, error) {
	budget, err := allocationDomain.ParseBudget(in.Budget)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Budget:    budget,
	}

	ctx, span := p.tracer.StartSpanFromContext(ctx, "sourcing.run",
		trace.WithAttributes(
			attribute.String("run_id", report.RunID),
			attribute.Int("candidates", len(in.Candidates)),
			attribute.String("budget", budget.StringFixed(2)),
		))
	defer span.End()

	p.logger.Info(ctx, "run started",
		"run_id", report.RunID,
		"candidates", len(in.Candidates),
		"budget", budget.StringFixed(2))

	runErr := p.run(ctx, in, report)
	report.FinishedAt = time.Now()

	switch {
	case runErr == nil:
		report.Status = domain.StatusCompleted
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		report.Status = domain.StatusCancelled
	default:
		report.Status = domain.StatusFailed
	}
	span.SetAttributes(attribute.String("status", string(report.Status)))
	if runErr != nil {
		span.NoticeError(runErr)
	}

	p.record(ctx, report)

	if runErr != nil {
		p.logger.Warn(ctx, "run did not complete",
			"run_id", report.RunID,
			"status", string(report.Status),
			"error", runErr)
		return report, runErr
	}

	if err := p.publish(ctx, report); err != nil {
		return report, err
	}

	p.logger.Info(ctx, "run completed",
		"run_id", report.RunID,
		"accepted", report.Enrichment.Stats.Accepted(),
		"viable", report.Profitability.Stats.Viable,
		"funded", len(report.Plan.Funded()),
		"total_cost", report.Plan.Summary.TotalCost.StringFixed(2),
		"duration", report.Duration().String())
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, in domain.Input, report *domain.Report) error {
	batch, err := p.resolver.Resolve(ctx, in.Candidates)
	report.Enrichment = batch
	if err != nil {
		return err
	}

	report.Profitability = p.profit.Estimate(ctx, batch.Records, in.Overrides)
	report.Demand = p.demand.Estimate(ctx, batch.Records)
	report.Join = allocationApp.Join(report.Profitability.Viable, report.Demand)
	if len(report.Join.Unmatched) > 0 {
		p.logger.Warn(ctx, "viable records without demand estimate",
			"count", len(report.Join.Unmatched),
			"ids", report.Join.Unmatched)
	}

	plan, err := p.allocator.Allocate(ctx, report.Join.Candidates, report.Budget)
	if err != nil {
		return err
	}
	report.Plan = plan
	report.Inventory = allocationApp.PlanInventory(plan.Lines, p.restock)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, report *domain.Report) error {
	var errs []error
	for _, r := range p.reporters {
		if err := r.Report(ctx, report); err != nil {
			p.logger.Error(ctx, "reporter failed", "run_id", report.RunID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) record(ctx context.Context, report *domain.Report) {
	attrs := metric.WithAttributes(attribute.String("status", string(report.Status)))
	p.runCounter.Add(ctx, 1, attrs)
	p.runDuration.Record(ctx, report.Duration().Seconds(), attrs)

	p.mu.Lock()
	p.lastRun = report
	p.mu.Unlock()
}

// LastRun returns the most recent finished run, or nil before the first.
func (p *Pipeline) LastRun() *domain.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastRun
}
