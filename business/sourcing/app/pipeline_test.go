package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	allocationApp "github.com/fd1az/fba-sourcing/business/allocation/app"
	catalogApp "github.com/fd1az/fba-sourcing/business/catalog/app"
	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/fixture"
	demandApp "github.com/fd1az/fba-sourcing/business/demand/app"
	profitApp "github.com/fd1az/fba-sourcing/business/profitability/app"
	profitDomain "github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/money"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// countingResolver records whether enrichment was reached.
type countingResolver struct {
	inner Resolver
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, candidates []catalogDomain.CandidateRef) (*catalogDomain.Batch, error) {
	c.calls++
	return c.inner.Resolve(ctx, candidates)
}

type stubReporter struct {
	reports []*domain.Report
	err     error
}

func (s *stubReporter) Report(ctx context.Context, r *domain.Report) error {
	s.reports = append(s.reports, r)
	return s.err
}

func product(id, title, price, rank string) catalogDomain.ProductRecord {
	return catalogDomain.ProductRecord{
		ID:    id,
		Title: title,
		Price: money.RequireFromString(price),
		Rank:  catalogDomain.NewRankSignal(rank),
	}
}

func newTestPipeline(t *testing.T, catalog *fixture.Catalog, opts ...PipelineOption) (*Pipeline, *countingResolver) {
	t.Helper()
	log := &mockLogger{}

	resolver, err := catalogApp.NewResolver(catalog, nil, catalogApp.ResolverConfig{
		Workers:      2,
		CallTimeout:  time.Second,
		KeywordLimit: 8,
	}, log)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	profit, err := profitApp.NewEstimator(profitDomain.DefaultFeeModel(), log)
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}
	engine, err := allocationApp.NewEngine(allocationApp.DefaultEngineConfig(), log)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	counting := &countingResolver{inner: resolver}
	p, err := NewPipeline(counting, profit, demandApp.NewEstimator(log), engine, PipelineConfig{}, log, opts...)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p, counting
}

func testCatalog() *fixture.Catalog {
	return fixture.New(
		product("B0PROFIT01", "Cast Iron Skillet", "25", "#300 in Kitchen"),
		product("B0BREAKEV1", "Silicone Spatula", "10", "#120 in Kitchen"),
		product("B0LOWDEMND", "Copper Kettle", "40", "#5,000 in Kitchen"),
	)
}

func testInput(budget string) domain.Input {
	overrides := profitDomain.CostOverrides{}
	overrides.Set("B0PROFIT01", money.RequireFromString("10"))
	return domain.Input{
		Candidates: []catalogDomain.CandidateRef{
			{ID: "B0PROFIT01"},
			{ID: "B0BREAKEV1"},
			{ID: "B0LOWDEMND"},
			{Title: "   "},
		},
		Budget:    budget,
		Overrides: overrides,
	}
}

func TestPipeline_Run(t *testing.T) {
	reporter := &stubReporter{}
	p, _ := newTestPipeline(t, testCatalog(), WithReporters(reporter))

	report, err := p.Run(context.Background(), testInput("100"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.RunID == "" || report.Status != domain.StatusCompleted {
		t.Errorf("run id %q status %s", report.RunID, report.Status)
	}

	stats := report.Enrichment.Stats
	if stats.Analyzed != 3 || stats.SkippedInvalid != 1 || stats.Completed != 4 {
		t.Errorf("enrichment stats = %+v", stats)
	}

	ps := report.Profitability.Stats
	if ps.Evaluated != 3 || ps.Viable != 2 || ps.NonPositiveROI != 1 {
		t.Errorf("profitability stats = %+v", ps)
	}
	if ids := report.Profitability.DiscardedIDs(profitDomain.ReasonNonPositiveROI); len(ids) != 1 || ids[0] != "B0BREAKEV1" {
		t.Errorf("roi discards = %v", ids)
	}

	plan := report.Plan
	if len(plan.Excluded) != 1 || plan.Excluded[0] != "B0LOWDEMND" {
		t.Errorf("excluded = %v", plan.Excluded)
	}
	if len(plan.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(plan.Lines))
	}
	line := plan.Lines[0]
	if line.ID != "B0PROFIT01" || line.Units != 10 || line.TotalCost.StringFixed(2) != "100.00" {
		t.Errorf("line = %s x%d cost %s", line.ID, line.Units, line.TotalCost)
	}
	if line.ROI.StringFixed(2) != "0.30" || line.EstimatedProfit.StringFixed(2) != "57.50" {
		t.Errorf("line roi %s profit %s", line.ROI, line.EstimatedProfit)
	}

	if len(report.Inventory) != 1 || report.Inventory[0].RecommendedStock != 12 {
		t.Errorf("inventory = %+v", report.Inventory)
	}

	if len(reporter.reports) != 1 || reporter.reports[0] != report {
		t.Errorf("reporter got %d reports", len(reporter.reports))
	}
	if p.LastRun() != report {
		t.Error("LastRun() does not return the finished report")
	}
}

func TestPipeline_Run_RejectsBudgetBeforeEnrichment(t *testing.T) {
	for _, budget := range []string{"0", "-5", "", "plenty"} {
		t.Run(budget, func(t *testing.T) {
			p, counting := newTestPipeline(t, testCatalog())
			report, err := p.Run(context.Background(), testInput(budget))
			if apperror.GetCode(err) != apperror.CodeInvalidBudget {
				t.Fatalf("error = %v, want %s", err, apperror.CodeInvalidBudget)
			}
			if report != nil {
				t.Error("report returned for a rejected budget")
			}
			if counting.calls != 0 {
				t.Errorf("resolver called %d times", counting.calls)
			}
		})
	}
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	reporter := &stubReporter{}
	p, _ := newTestPipeline(t, testCatalog(), WithReporters(reporter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, testInput("100"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report == nil || report.Status != domain.StatusCancelled {
		t.Fatalf("report = %+v, want cancelled report", report)
	}
	if report.Plan != nil || report.Profitability != nil {
		t.Error("stages after enrichment ran on a cancelled batch")
	}
	if len(reporter.reports) != 0 {
		t.Error("cancelled run was published")
	}
	if p.LastRun() != report {
		t.Error("LastRun() should hold the cancelled run")
	}
}

func TestPipeline_Run_ReporterError(t *testing.T) {
	boom := errors.New("disk full")
	p, _ := newTestPipeline(t, testCatalog(), WithReporters(&stubReporter{err: boom}, &stubReporter{}))

	report, err := p.Run(context.Background(), testInput("100"))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if report == nil || report.Plan == nil {
		t.Error("report should be complete when only publishing fails")
	}
}

func TestPipeline_RestockFactor(t *testing.T) {
	log := &mockLogger{}
	resolver, _ := catalogApp.NewResolver(testCatalog(), nil, catalogApp.ResolverConfig{Workers: 1}, log)
	profit, _ := profitApp.NewEstimator(profitDomain.DefaultFeeModel(), log)
	engine, _ := allocationApp.NewEngine(allocationApp.DefaultEngineConfig(), log)

	p, err := NewPipeline(resolver, profit, demandApp.NewEstimator(log), engine,
		PipelineConfig{RestockFactor: decimal.RequireFromString("2")}, log)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	report, err := p.Run(context.Background(), testInput("100"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Inventory[0].RecommendedStock != 20 {
		t.Errorf("stock = %d, want 20", report.Inventory[0].RecommendedStock)
	}
}

func TestNewPipeline_RequiresStages(t *testing.T) {
	if _, err := NewPipeline(nil, nil, nil, nil, PipelineConfig{}, &mockLogger{}); err == nil {
		t.Error("NewPipeline() error = nil, want error")
	}
}
