// Package di contains dependency injection tokens for the allocation context.
package di

import (
	"github.com/fd1az/fba-sourcing/business/allocation/app"
	"github.com/fd1az/fba-sourcing/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine = di.NewToken[*app.Engine]("allocation.Engine")
)

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}
