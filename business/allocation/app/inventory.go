package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/fba-sourcing/business/allocation/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
)

// DefaultRestockFactor keeps a quarter of the order as safety stock.
var DefaultRestockFactor = decimal.RequireFromString("1.25")

// PlanInventory recommends stock levels for every funded line. It is advisory
// and never changes the plan. Factors below one are treated as one.
func PlanInventory(lines []domain.AllocationLine, factor decimal.Decimal) []domain.InventoryLine {
	if factor.LessThan(decimal.NewFromInt(1)) {
		factor = decimal.NewFromInt(1)
	}
	out := make([]domain.InventoryLine, 0, len(lines))
	for _, l := range lines {
		if l.Units == 0 {
			continue
		}
		stock := money.Units(l.Units.Decimal().Mul(factor).Floor().IntPart())
		out = append(out, domain.InventoryLine{
			ID:               l.ID,
			Title:            l.Title,
			RecommendedStock: stock,
			StockCost:        l.Cost.MulUnits(stock).Round(2),
			ProjectedValue:   l.Price.MulUnits(stock).Round(2),
		})
	}
	return out
}
