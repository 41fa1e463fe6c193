// Package demand implements the demand estimation bounded context.
package demand

import (
	"context"

	"github.com/fd1az/fba-sourcing/business/demand/app"
	demandDI "github.com/fd1az/fba-sourcing/business/demand/di"
	"github.com/fd1az/fba-sourcing/internal/di"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/monolith"
)

// Module implements the demand bounded context.
type Module struct{}

// RegisterServices registers all demand services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, demandDI.Estimator, func(sr di.ServiceRegistry) *app.Estimator {
		return app.NewEstimator(sr.Get("logger").(logger.LoggerInterface))
	})
	return nil
}

func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Debug(ctx, "demand module started")
	return nil
}
