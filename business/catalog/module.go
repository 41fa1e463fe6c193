// Package catalog implements the enrichment bounded context: candidate
// lookups against product data providers.
package catalog

import (
	"context"
	"fmt"

	"github.com/fd1az/fba-sourcing/business/catalog/app"
	catalogDI "github.com/fd1az/fba-sourcing/business/catalog/di"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/fixture"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/guarded"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/keepa"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/scraper"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/serpapi"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/config"
	"github.com/fd1az/fba-sourcing/internal/di"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/monolith"
)

// Module implements the catalog bounded context.
type Module struct{}

// RegisterServices registers all catalog services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, catalogDI.PrimaryProvider, func(sr di.ServiceRegistry) app.ProductProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := NewProvider(cfg.Catalog.Primary, "primary", cfg, log)
		if err != nil {
			panic("failed to create primary provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, catalogDI.SecondaryProvider, func(sr di.ServiceRegistry) app.ProductProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		name := cfg.Catalog.Secondary
		if name == "" || name == config.ProviderNone {
			return nil
		}
		provider, err := NewProvider(name, "secondary", cfg, log)
		if err != nil {
			panic("failed to create secondary provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, catalogDI.Resolver, func(sr di.ServiceRegistry) *app.Resolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		resolver, err := app.NewResolver(
			catalogDI.GetPrimaryProvider(sr),
			catalogDI.GetSecondaryProvider(sr),
			ResolverConfig(cfg.Catalog),
			log,
		)
		if err != nil {
			panic("failed to create resolver: " + err.Error())
		}
		return resolver
	})

	return nil
}

// Startup resolves the providers and exposes their breakers to the health server.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	providers := []app.ProductProvider{catalogDI.GetPrimaryProvider(sr)}
	if secondary := catalogDI.GetSecondaryProvider(sr); secondary != nil {
		providers = append(providers, secondary)
	}

	if hs := mono.Health(); hs != nil {
		for _, p := range providers {
			g, ok := p.(*guarded.Provider)
			if !ok {
				continue
			}
			hs.RegisterCheck("provider:"+g.BreakerName(), func(context.Context) (bool, string) {
				return !g.BreakerOpen(), "circuit " + g.BreakerState().String()
			})
		}
	}

	log.Info(ctx, "catalog module started",
		"primary", string(providers[0].Source()),
		"providers", len(providers))
	return nil
}

// ResolverConfig maps the catalog configuration section.
func ResolverConfig(c config.CatalogConfig) app.ResolverConfig {
	return app.ResolverConfig{
		NoFallback:       c.NoFallback,
		Workers:          c.Workers,
		CallTimeout:      c.CallTimeout,
		PostSuccessPause: c.PostSuccessPause,
		KeywordLimit:     c.KeywordLimit,
		Denylist:         c.Denylist,
	}
}

// NewProvider builds the named adapter. Network adapters are wrapped with a
// circuit breaker and their configured quota; the fixture catalog is not.
func NewProvider(name, role string, cfg *config.Config, log logger.LoggerInterface) (app.ProductProvider, error) {
	var (
		inner app.ProductProvider
		quota int
		err   error
	)

	switch name {
	case config.ProviderSerpAPI:
		quota = cfg.SerpAPI.QuotaPerMinute
		inner, err = serpapi.New(serpapi.Config{
			BaseURL: cfg.SerpAPI.BaseURL,
			APIKey:  cfg.SerpAPI.APIKey,
			Domain:  cfg.SerpAPI.Domain,
			Timeout: cfg.Catalog.CallTimeout,
		}, log)
	case config.ProviderKeepa:
		quota = cfg.Keepa.QuotaPerMinute
		inner, err = keepa.New(keepa.Config{
			BaseURL: cfg.Keepa.BaseURL,
			APIKey:  cfg.Keepa.APIKey,
			Domain:  cfg.Keepa.Domain,
			Timeout: cfg.Catalog.CallTimeout,
		}, log)
	case config.ProviderScraper:
		quota = cfg.Scraper.QuotaPerMinute
		inner, err = scraper.New(scraper.Config{
			BaseURL:   cfg.Scraper.BaseURL,
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.Catalog.CallTimeout,
		}, log)
	case config.ProviderFixture:
		if cfg.Catalog.FixturePath == "" {
			log.Warn(context.Background(), "fixture provider has no catalog file, every lookup will miss", "role", role)
			return fixture.New(), nil
		}
		catalog, err := fixture.LoadFile(cfg.Catalog.FixturePath)
		if err != nil {
			return nil, err
		}
		log.Info(context.Background(), "fixture catalog loaded", "role", role, "records", catalog.Len())
		return catalog, nil
	default:
		return nil, apperror.Validation(apperror.CodeUnknownProvider, name)
	}
	if err != nil {
		return nil, err
	}

	gcfg := guarded.DefaultConfig(inner.Source())
	gcfg.Breaker.Name = fmt.Sprintf("%s-%s", name, role)
	gcfg.QuotaPerMinute = quota
	provider, err := guarded.Wrap(inner, gcfg, log)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
