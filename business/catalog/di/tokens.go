// Package di contains dependency injection tokens for the catalog context.
package di

import (
	"github.com/fd1az/fba-sourcing/business/catalog/app"
	"github.com/fd1az/fba-sourcing/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Resolver = di.NewToken[*app.Resolver]("catalog.Resolver")
)

// Private dependency tokens - internal to catalog module
var (
	PrimaryProvider   = di.NewToken[app.ProductProvider]("catalog:primaryProvider")
	SecondaryProvider = di.NewToken[app.ProductProvider]("catalog:secondaryProvider")
)

func GetResolver(c di.ServiceRegistry) *app.Resolver {
	return di.GetToken(c, Resolver)
}

func GetPrimaryProvider(c di.ServiceRegistry) app.ProductProvider {
	return di.GetToken(c, PrimaryProvider)
}

// GetSecondaryProvider returns nil when no secondary provider is configured.
func GetSecondaryProvider(c di.ServiceRegistry) app.ProductProvider {
	return di.GetToken(c, SecondaryProvider)
}
