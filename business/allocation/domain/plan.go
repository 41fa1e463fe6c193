package domain

import (
	"github.com/shopspring/decimal"

	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

// AllocationLine is the purchase decision for one candidate. Lines with zero
// units are kept so the plan shows why a candidate got nothing.
type AllocationLine struct {
	ID              string
	Title           string
	Price           money.Amount
	Cost            money.Amount
	ROI             decimal.Decimal
	TemporalROI     decimal.Decimal
	Tier            demandDomain.Tier
	Units           money.Units
	TotalCost       money.Amount
	EstimatedProfit decimal.Decimal
}

// LineHeader names the allocation columns.
var LineHeader = []string{
	"id", "title", "price", "cost", "roi", "temporalRoi", "demandTier",
	"unitsToOrder", "totalCost", "estimatedProfit",
}

func (l AllocationLine) Values() []string {
	return []string{
		l.ID,
		l.Title,
		tabular.FormatMoney(l.Price),
		tabular.FormatMoney(l.Cost),
		l.ROI.StringFixed(2),
		l.TemporalROI.StringFixed(2),
		string(l.Tier),
		tabular.FormatInt(int(l.Units)),
		tabular.FormatMoney(l.TotalCost),
		l.EstimatedProfit.StringFixed(2),
	}
}

// PortfolioSummary aggregates every line of a plan.
type PortfolioSummary struct {
	Budget             money.Amount
	TotalCost          money.Amount
	TotalProfit        decimal.Decimal
	OverallROI         decimal.Decimal
	OverallTemporalROI decimal.Decimal
	RemainingBudget    money.Amount
	Lines              int
	UnitsOrdered       money.Units
}

var SummaryHeader = []string{
	"budget", "totalCost", "totalProfit", "overallRoi", "overallTemporalRoi",
	"remainingBudget", "lines", "unitsOrdered",
}

func (s PortfolioSummary) Values() []string {
	return []string{
		tabular.FormatMoney(s.Budget),
		tabular.FormatMoney(s.TotalCost),
		s.TotalProfit.StringFixed(2),
		s.OverallROI.StringFixed(2),
		s.OverallTemporalROI.StringFixed(2),
		tabular.FormatMoney(s.RemainingBudget),
		tabular.FormatInt(s.Lines),
		tabular.FormatInt(int(s.UnitsOrdered)),
	}
}

// Plan is the output of one allocation.
type Plan struct {
	Lines   []AllocationLine
	Summary PortfolioSummary
	// Excluded lists candidates whose demand tier is not eligible.
	Excluded []string
}

// Funded returns the lines that received at least one unit.
func (p *Plan) Funded() []AllocationLine {
	out := make([]AllocationLine, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.Units > 0 {
			out = append(out, l)
		}
	}
	return out
}

// InventoryLine is the advisory stock level for a funded line.
type InventoryLine struct {
	ID               string
	Title            string
	RecommendedStock money.Units
	StockCost        money.Amount
	ProjectedValue   money.Amount
}

var InventoryHeader = []string{"id", "title", "recommendedStock", "stockCost", "projectedValue"}

func (l InventoryLine) Values() []string {
	return []string{
		l.ID,
		l.Title,
		tabular.FormatInt(int(l.RecommendedStock)),
		tabular.FormatMoney(l.StockCost),
		tabular.FormatMoney(l.ProjectedValue),
	}
}
