package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

// ProfitabilityRecord is the unit economics of one enriched product.
type ProfitabilityRecord struct {
	ID           string
	Title        string
	Price        money.Amount
	Cost         money.Amount
	Fees         money.Amount
	ShippingCost money.Amount
	Profit       decimal.Decimal // may be negative
	ROI          decimal.Decimal
	Viable       bool
}

// Header names the tabular columns.
var Header = []string{"id", "title", "price", "cost", "fees", "shippingCost", "profit", "roi", "viable"}

// TotalCost is everything paid per unit sold.
func (r ProfitabilityRecord) TotalCost() money.Amount {
	return r.Cost.Add(r.ShippingCost).Add(r.Fees)
}

func (r ProfitabilityRecord) Values() []string {
	return []string{
		r.ID,
		r.Title,
		tabular.FormatMoney(r.Price),
		tabular.FormatMoney(r.Cost),
		tabular.FormatMoney(r.Fees),
		tabular.FormatMoney(r.ShippingCost),
		r.Profit.StringFixed(2),
		r.ROI.StringFixed(2),
		tabular.FormatBool(r.Viable),
	}
}

// RecordFromRow reads a profitability row. The legacy column names asin,
// fba_fees and shipping are accepted.
func RecordFromRow(row tabular.Row) (ProfitabilityRecord, error) {
	var (
		rec ProfitabilityRecord
		err error
	)
	rec.ID = row.Get("id", "asin")
	rec.Title = row.Get("title")

	if rec.Price, err = tabular.ParseMoney("price", row.Get("price")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if rec.Cost, err = tabular.ParseMoney("cost", row.Get("cost")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if rec.Fees, err = tabular.ParseMoney("fees", row.Get("fees", "fba_fees")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if rec.ShippingCost, err = tabular.ParseMoney("shippingCost", row.Get("shippingCost", "shipping")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if rec.Profit, err = tabular.ParseDecimal("profit", row.Get("profit")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if rec.ROI, err = tabular.ParseDecimal("roi", row.Get("roi")); err != nil {
		return ProfitabilityRecord{}, err
	}
	if v := row.Get("viable"); v != "" {
		if rec.Viable, err = tabular.ParseBool("viable", v); err != nil {
			return ProfitabilityRecord{}, err
		}
	} else {
		rec.Viable = rec.ROI.IsPositive()
	}
	return rec, nil
}
