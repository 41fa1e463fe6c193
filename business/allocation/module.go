// Package allocation implements the budget allocation bounded context.
package allocation

import (
	"context"
	"strings"

	"github.com/fd1az/fba-sourcing/business/allocation/app"
	allocationDI "github.com/fd1az/fba-sourcing/business/allocation/di"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/config"
	"github.com/fd1az/fba-sourcing/internal/di"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/monolith"
)

// Module implements the allocation bounded context.
type Module struct{}

// RegisterServices registers all allocation services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, allocationDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		engineCfg, err := EngineConfig(cfg.Allocation)
		if err != nil {
			panic("invalid allocation config: " + err.Error())
		}
		engine, err := app.NewEngine(engineCfg, log)
		if err != nil {
			panic("failed to create allocation engine: " + err.Error())
		}
		return engine
	})

	return nil
}

func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().Allocation
	mono.Logger().Info(ctx, "allocation module started",
		"turnover_days", cfg.TurnoverDays,
		"eligible_tiers", strings.Join(cfg.EligibleTiers, ","),
		"restock_factor", cfg.RestockFactor)
	return nil
}

// EngineConfig maps the allocation configuration section.
func EngineConfig(c config.AllocationConfig) (app.EngineConfig, error) {
	out := app.EngineConfig{TurnoverDays: c.TurnoverDays}
	for _, name := range c.EligibleTiers {
		tier, err := demandDomain.ParseTier(name)
		if err != nil {
			return app.EngineConfig{}, err
		}
		out.EligibleTiers = append(out.EligibleTiers, tier)
	}
	return out, nil
}
