// Package app contains the budget allocation engine.
package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/fba-sourcing/business/allocation/domain"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/money"
)

const DefaultTurnoverDays = 90

var daysPerYear = decimal.NewFromInt(365)

// EngineConfig holds allocation settings.
type EngineConfig struct {
	TurnoverDays  int
	EligibleTiers []demandDomain.Tier
}

// DefaultEngineConfig allocates to MEDIUM and HIGH demand on a 90 day cycle.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TurnoverDays:  DefaultTurnoverDays,
		EligibleTiers: []demandDomain.Tier{demandDomain.TierMedium, demandDomain.TierHigh},
	}
}

// Engine spreads a budget across candidates greedily by ROI. It is not a
// knapsack optimizer: the first candidate in ROI order takes as many units as
// its demand and the remaining budget allow.
type Engine struct {
	turnover decimal.Decimal
	eligible map[demandDomain.Tier]bool
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	unitsAllocated metric.Int64Counter
	budgetSpent    metric.Float64Counter
}

func NewEngine(cfg EngineConfig, log logger.LoggerInterface) (*Engine, error) {
	if cfg.TurnoverDays < 1 {
		return nil, apperror.Validation(apperror.CodeConfigurationError,
			fmt.Sprintf("turnover days must be at least 1, got %d", cfg.TurnoverDays))
	}
	if len(cfg.EligibleTiers) == 0 {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "no eligible demand tiers")
	}

	e := &Engine{
		turnover: decimal.NewFromInt(int64(cfg.TurnoverDays)),
		eligible: make(map[demandDomain.Tier]bool, len(cfg.EligibleTiers)),
		logger:   log,
		tracer:   otel.Tracer("github.com/fd1az/fba-sourcing/business/allocation"),
	}
	for _, t := range cfg.EligibleTiers {
		e.eligible[t] = true
	}

	meter := otel.Meter("github.com/fd1az/fba-sourcing/business/allocation")
	var err error
	e.unitsAllocated, err = meter.Int64Counter("allocation_units_total",
		metric.WithDescription("Units assigned across all plans"))
	if err != nil {
		return nil, fmt.Errorf("failed to create units counter: %w", err)
	}
	e.budgetSpent, err = meter.Float64Counter("allocation_budget_spent_total",
		metric.WithDescription("Budget committed across all plans"))
	if err != nil {
		return nil, fmt.Errorf("failed to create budget counter: %w", err)
	}
	return e, nil
}

// Allocate builds a purchase plan. The sum of line costs never exceeds budget
// and lines come out in descending ROI order, ties keeping input order.
func (e *Engine) Allocate(ctx context.Context, candidates []domain.Candidate, budget money.Amount) (*domain.Plan, error) {
	if !budget.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidBudget, "budget must be positive, got "+budget.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "allocation.allocate",
		trace.WithAttributes(
			attribute.Int("candidates", len(candidates)),
			attribute.String("budget", budget.StringFixed(2)),
		))
	defer span.End()

	plan := &domain.Plan{}
	ranked := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !e.eligible[c.Tier] {
			plan.Excluded = append(plan.Excluded, c.ID)
			continue
		}
		ranked = append(ranked, c)
	}
	slices.SortStableFunc(ranked, func(a, b domain.Candidate) int {
		return b.ROI.Cmp(a.ROI)
	})

	remaining := budget
	totalCost := money.Zero
	totalProfit := decimal.Zero
	var units money.Units

	for _, c := range ranked {
		line := e.allocateOne(c, remaining)
		left, err := remaining.Sub(line.TotalCost)
		if err != nil {
			return nil, apperror.Internal(apperror.CodeInternalError, "allocation overspent budget on "+c.ID, err)
		}
		remaining = left
		totalCost = totalCost.Add(line.TotalCost)
		totalProfit = totalProfit.Add(line.EstimatedProfit)
		units += line.Units
		plan.Lines = append(plan.Lines, line)
	}

	plan.Summary = domain.PortfolioSummary{
		Budget:          budget,
		TotalCost:       totalCost,
		TotalProfit:     totalProfit.Round(2),
		RemainingBudget: remaining,
		Lines:           len(plan.Lines),
		UnitsOrdered:    units,
	}
	if totalCost.IsPositive() {
		overall := totalProfit.Div(totalCost.Decimal())
		plan.Summary.OverallROI = overall.Round(2)
		plan.Summary.OverallTemporalROI = e.annualize(overall)
	}

	e.unitsAllocated.Add(ctx, int64(units))
	e.budgetSpent.Add(ctx, totalCost.Decimal().InexactFloat64())
	span.SetAttributes(
		attribute.Int("lines", len(plan.Lines)),
		attribute.Int("excluded", len(plan.Excluded)),
		attribute.String("total_cost", totalCost.StringFixed(2)),
	)

	e.logger.Info(ctx, "allocation complete",
		"budget", budget.StringFixed(2),
		"total_cost", totalCost.StringFixed(2),
		"total_profit", plan.Summary.TotalProfit.StringFixed(2),
		"overall_roi", plan.Summary.OverallROI.StringFixed(2),
		"lines", len(plan.Lines),
		"excluded", len(plan.Excluded),
		"units", uint64(units))

	return plan, nil
}

func (e *Engine) allocateOne(c domain.Candidate, remaining money.Amount) domain.AllocationLine {
	line := domain.AllocationLine{
		ID:              c.ID,
		Title:           c.Title,
		Price:           c.Price,
		Cost:            c.Cost,
		ROI:             c.ROI,
		Tier:            c.Tier,
		TotalCost:       money.Zero,
		EstimatedProfit: decimal.Zero,
	}
	if !c.Cost.IsPositive() {
		return line
	}

	line.Units = remaining.AffordableUpTo(c.Cost, c.DemandCap())
	line.TotalCost = c.Cost.MulUnits(line.Units)
	line.EstimatedProfit = c.Profit.Mul(line.Units.Decimal())
	if line.TotalCost.IsPositive() {
		line.TemporalROI = e.annualize(line.EstimatedProfit.Div(line.TotalCost.Decimal()))
	}
	return line
}

func (e *Engine) annualize(roi decimal.Decimal) decimal.Decimal {
	return roi.Mul(daysPerYear).Div(e.turnover).Round(2)
}
