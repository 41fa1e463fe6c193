// Package domain contains the core types for the profitability context.
package domain

import (
	"github.com/shopspring/decimal"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// moneyPlaces is the precision of every reported amount and ratio.
const moneyPlaces = 2

// FeeModel holds the per-unit selling cost assumptions.
type FeeModel struct {
	ShippingCost     money.Amount
	FeeRate          decimal.Decimal // share of price taken as referral fee
	FixedFee         money.Amount
	DefaultCostRatio decimal.Decimal // supplier cost as a share of price when no override exists
}

// DefaultFeeModel returns the standard marketplace assumptions.
func DefaultFeeModel() FeeModel {
	return FeeModel{
		ShippingCost:     money.RequireFromString("2.50"),
		FeeRate:          decimal.RequireFromString("0.15"),
		FixedFee:         money.RequireFromString("3.00"),
		DefaultCostRatio: decimal.RequireFromString("0.30"),
	}
}

// CostOverrides maps a normalized identifier to a known supplier cost.
type CostOverrides map[string]money.Amount

// Lookup finds the override for id, normalizing it first.
func (o CostOverrides) Lookup(id string) (money.Amount, bool) {
	if o == nil {
		return money.Zero, false
	}
	a, ok := o[validate.NormalizeIdentifier(id)]
	return a, ok
}

// Set stores cost under the normalized id.
func (o CostOverrides) Set(id string, cost money.Amount) {
	o[validate.NormalizeIdentifier(id)] = cost.Round(moneyPlaces)
}

// Evaluate prices one record. The returned Discard is non-nil when the record
// has no positive price or its ROI is not positive.
func (m FeeModel) Evaluate(rec catalogDomain.ProductRecord, overrides CostOverrides) (ProfitabilityRecord, *Discard) {
	if !rec.Price.IsPositive() {
		return ProfitabilityRecord{}, &Discard{ID: rec.ID, Title: rec.Title, Reason: ReasonInvalidPrice}
	}
	price := rec.Price.Decimal()

	cost, ok := overrides.Lookup(rec.ID)
	if !ok {
		cost = money.MustNew(price.Mul(m.DefaultCostRatio).Round(moneyPlaces))
	}
	fees := money.MustNew(price.Mul(m.FeeRate).Add(m.FixedFee.Decimal()).Round(moneyPlaces))
	shipping := m.ShippingCost

	totalCost := cost.Add(shipping).Add(fees)
	profit := price.Sub(totalCost.Decimal()).Round(moneyPlaces)

	roi := decimal.Zero
	if totalCost.IsPositive() {
		roi = profit.Div(totalCost.Decimal()).Round(moneyPlaces)
	}

	out := ProfitabilityRecord{
		ID:           rec.ID,
		Title:        rec.Title,
		Price:        rec.Price.Round(moneyPlaces),
		Cost:         cost,
		Fees:         fees,
		ShippingCost: shipping,
		Profit:       profit,
		ROI:          roi,
		Viable:       roi.IsPositive(),
	}
	if !out.Viable {
		return out, &Discard{ID: rec.ID, Title: rec.Title, Reason: ReasonNonPositiveROI, ROI: &roi}
	}
	return out, nil
}
