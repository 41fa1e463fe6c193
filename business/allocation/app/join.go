package app

import (
	"github.com/fd1az/fba-sourcing/business/allocation/domain"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	profitDomain "github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// Join builds allocation candidates by identifier, keeping profitability order.
func Join(profits []profitDomain.ProfitabilityRecord, demand []demandDomain.DemandRecord) domain.JoinResult {
	byID := make(map[string]demandDomain.DemandRecord, len(demand))
	for _, d := range demand {
		id := validate.NormalizeIdentifier(d.ID)
		if _, dup := byID[id]; !dup {
			byID[id] = d
		}
	}

	var res domain.JoinResult
	for _, p := range profits {
		if !p.Viable {
			res.NotViable = append(res.NotViable, p.ID)
			continue
		}
		d, ok := byID[validate.NormalizeIdentifier(p.ID)]
		if !ok {
			res.Unmatched = append(res.Unmatched, p.ID)
			continue
		}
		res.Candidates = append(res.Candidates, domain.Candidate{
			ID:                    p.ID,
			Title:                 p.Title,
			Price:                 p.Price,
			Cost:                  p.Cost,
			Profit:                p.Profit,
			ROI:                   p.ROI,
			EstimatedMonthlySales: d.EstimatedMonthlySales,
			Tier:                  d.Tier,
		})
	}
	return res
}
