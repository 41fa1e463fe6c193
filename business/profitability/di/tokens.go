// Package di contains dependency injection tokens for the profitability context.
package di

import (
	"github.com/fd1az/fba-sourcing/business/profitability/app"
	"github.com/fd1az/fba-sourcing/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Estimator = di.NewToken[*app.Estimator]("profitability.Estimator")
)

func GetEstimator(c di.ServiceRegistry) *app.Estimator {
	return di.GetToken(c, Estimator)
}
