// Package profitability implements the unit-economics bounded context.
package profitability

import (
	"context"

	"github.com/fd1az/fba-sourcing/business/profitability/app"
	profitabilityDI "github.com/fd1az/fba-sourcing/business/profitability/di"
	"github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/internal/config"
	"github.com/fd1az/fba-sourcing/internal/di"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/monolith"
)

// Module implements the profitability bounded context.
type Module struct{}

// RegisterServices registers all profitability services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, profitabilityDI.Estimator, func(sr di.ServiceRegistry) *app.Estimator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		estimator, err := app.NewEstimator(FeeModel(cfg.Profitability), log)
		if err != nil {
			panic("failed to create profitability estimator: " + err.Error())
		}
		return estimator
	})

	return nil
}

// Startup logs the active fee model.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	model := profitabilityDI.GetEstimator(mono.Services()).Model()
	mono.Logger().Info(ctx, "profitability module started",
		"shipping_cost", model.ShippingCost.String(),
		"fee_rate", model.FeeRate.String(),
		"fixed_fee", model.FixedFee.String(),
		"default_cost_ratio", model.DefaultCostRatio.String())
	return nil
}

// FeeModel maps the profitability configuration section. Validate has already
// rejected negative values.
func FeeModel(c config.ProfitabilityConfig) domain.FeeModel {
	return domain.FeeModel{
		ShippingCost:     money.MustNew(c.ShippingCostDecimal()),
		FeeRate:          c.FeeRateDecimal(),
		FixedFee:         money.MustNew(c.FixedFeeDecimal()),
		DefaultCostRatio: c.DefaultCostRatioDecimal(),
	}
}
