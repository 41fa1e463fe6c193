// Package domain contains the purchase plan types for the allocation context.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/money"
)

// Candidate is a viable product joined with its demand estimate.
type Candidate struct {
	ID                    string
	Title                 string
	Price                 money.Amount
	Cost                  money.Amount // unit purchase cost
	Profit                decimal.Decimal
	ROI                   decimal.Decimal
	EstimatedMonthlySales int
	Tier                  demandDomain.Tier
}

// DemandCap is the most units the candidate may receive.
func (c Candidate) DemandCap() money.Units {
	if c.EstimatedMonthlySales <= 0 {
		return 0
	}
	return money.Units(c.EstimatedMonthlySales)
}

// JoinResult pairs profitability rows with their demand rows.
type JoinResult struct {
	Candidates []Candidate
	// Unmatched holds profitability ids with no demand row.
	Unmatched []string
	// NotViable holds ids skipped because their ROI is not positive.
	NotViable []string
}

// ParseBudget reads a total spend ceiling such as "1000", "$1,500.00".
// Unparseable and non-positive budgets are rejected.
func ParseBudget(s string) (money.Amount, error) {
	raw := strings.TrimSpace(s)
	clean := strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return money.Zero, apperror.New(apperror.CodeInvalidBudget,
			apperror.WithContext("budget "+raw), apperror.WithCause(err))
	}
	return NewBudget(d)
}

// NewBudget rejects budgets that are not strictly positive.
func NewBudget(d decimal.Decimal) (money.Amount, error) {
	if !d.IsPositive() {
		return money.Zero, apperror.Validation(apperror.CodeInvalidBudget, "budget must be positive, got "+d.String())
	}
	return money.MustNew(d), nil
}
