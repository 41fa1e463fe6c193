// Package di contains dependency injection tokens for the demand context.
package di

import (
	"github.com/fd1az/fba-sourcing/business/demand/app"
	"github.com/fd1az/fba-sourcing/internal/di"
)

var (
	Estimator = di.NewToken[*app.Estimator]("demand.Estimator")
)

func GetEstimator(c di.ServiceRegistry) *app.Estimator {
	return di.GetToken(c, Estimator)
}
