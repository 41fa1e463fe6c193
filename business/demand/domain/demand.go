// Package domain contains the rank-to-demand mapping.
package domain

import (
	"strings"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

// Tier is a coarse demand bucket.
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// ParseTier accepts a tier name in any case.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToUpper(strings.TrimSpace(s))); t {
	case TierLow, TierMedium, TierHigh:
		return t, nil
	default:
		return "", apperror.Validation(apperror.CodeInvalidInput, "demand tier "+s)
	}
}

// Rank breakpoints and the monthly unit estimate for each bucket. A missing
// rank falls in the last bucket.
var salesBuckets = []struct {
	below int
	sales int
}{
	{500, 1000},
	{1000, 500},
	{2000, 250},
}

const fallbackSales = 100

const (
	highSales   = 800
	mediumSales = 300
)

// EstimateSales maps a rank signal to estimated monthly unit sales.
func EstimateSales(rank catalogDomain.RankSignal) int {
	n, ok := rank.Value()
	if !ok {
		return fallbackSales
	}
	for _, b := range salesBuckets {
		if n < b.below {
			return b.sales
		}
	}
	return fallbackSales
}

// TierFor buckets a monthly sales estimate.
func TierFor(sales int) Tier {
	switch {
	case sales >= highSales:
		return TierHigh
	case sales >= mediumSales:
		return TierMedium
	default:
		return TierLow
	}
}

// DemandRecord is the demand estimate for one product.
type DemandRecord struct {
	ID                    string
	Title                 string
	Rank                  catalogDomain.RankSignal
	EstimatedMonthlySales int
	Tier                  Tier
}

// Header names the tabular columns.
var Header = []string{"id", "title", "rankSignal", "estimatedMonthlySales", "demandTier"}

// Estimate derives the demand record for rec.
func Estimate(rec catalogDomain.ProductRecord) DemandRecord {
	sales := EstimateSales(rec.Rank)
	return DemandRecord{
		ID:                    rec.ID,
		Title:                 rec.Title,
		Rank:                  rec.Rank,
		EstimatedMonthlySales: sales,
		Tier:                  TierFor(sales),
	}
}

func (d DemandRecord) Values() []string {
	return []string{d.ID, d.Title, d.Rank.Raw(), tabular.FormatInt(d.EstimatedMonthlySales), string(d.Tier)}
}

// RecordFromRow reads a demand row. The legacy names asin, bsr,
// est_monthly_sales and demand_level are accepted. A missing tier is derived
// from the sales figure.
func RecordFromRow(row tabular.Row) (DemandRecord, error) {
	rec := DemandRecord{
		ID:    row.Get("id", "asin"),
		Title: row.Get("title"),
		Rank:  catalogDomain.NewRankSignal(row.Get("rankSignal", "bsr")),
	}

	raw := row.Get("estimatedMonthlySales", "est_monthly_sales")
	if raw == "" {
		rec.EstimatedMonthlySales = EstimateSales(rec.Rank)
	} else {
		sales, err := tabular.ParseInt("estimatedMonthlySales", raw)
		if err != nil {
			return DemandRecord{}, err
		}
		rec.EstimatedMonthlySales = sales
	}

	if t := row.Get("demandTier", "demand_level", "demand"); t != "" {
		tier, err := ParseTier(t)
		if err != nil {
			return DemandRecord{}, err
		}
		rec.Tier = tier
	} else {
		rec.Tier = TierFor(rec.EstimatedMonthlySales)
	}
	return rec, nil
}
