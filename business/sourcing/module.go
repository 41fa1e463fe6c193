// Package sourcing wires the enrichment, profitability, demand and
// allocation contexts into one pipeline run.
package sourcing

import (
	"context"
	"fmt"
	"time"

	allocationDI "github.com/fd1az/fba-sourcing/business/allocation/di"
	catalogDI "github.com/fd1az/fba-sourcing/business/catalog/di"
	demandDI "github.com/fd1az/fba-sourcing/business/demand/di"
	profitabilityDI "github.com/fd1az/fba-sourcing/business/profitability/di"
	"github.com/fd1az/fba-sourcing/business/sourcing/app"
	sourcingDI "github.com/fd1az/fba-sourcing/business/sourcing/di"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/infra/console"
	"github.com/fd1az/fba-sourcing/business/sourcing/infra/files"
	"github.com/fd1az/fba-sourcing/internal/config"
	"github.com/fd1az/fba-sourcing/internal/di"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/monolith"
)

// Module implements the sourcing bounded context. It depends on the catalog,
// profitability, demand and allocation modules being registered first.
type Module struct{}

// RegisterServices registers the pipeline and its reporters.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, sourcingDI.TableWriter, func(sr di.ServiceRegistry) *files.Writer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return files.NewWriter(cfg.Output.Dir, log)
	})

	di.RegisterToken(c, sourcingDI.Pipeline, func(sr di.ServiceRegistry) *app.Pipeline {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		reporters := []app.Reporter{sourcingDI.GetTableWriter(sr)}
		if cfg.Output.Console {
			reporters = append(reporters, console.NewReporter())
		}

		pipeline, err := app.NewPipeline(
			catalogDI.GetResolver(sr),
			profitabilityDI.GetEstimator(sr),
			demandDI.GetEstimator(sr),
			allocationDI.GetEngine(sr),
			app.PipelineConfig{RestockFactor: cfg.Allocation.RestockFactorDecimal()},
			log,
			app.WithReporters(reporters...),
		)
		if err != nil {
			panic("failed to create pipeline: " + err.Error())
		}
		return pipeline
	})

	return nil
}

// Startup exposes the last run status to the health server.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	pipeline := sourcingDI.GetPipeline(mono.Services())

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("pipeline:last_run", func(context.Context) (bool, string) {
			return LastRunStatus(pipeline.LastRun())
		})
	}

	mono.Logger().Info(ctx, "sourcing module started",
		"output_dir", sourcingDI.GetTableWriter(mono.Services()).Dir())
	return nil
}

// LastRunStatus reports a failed run as unhealthy. No run yet, completed and
// cancelled runs are healthy.
func LastRunStatus(r *domain.Report) (bool, string) {
	if r == nil {
		return true, "no run yet"
	}
	msg := fmt.Sprintf("run %s %s at %s", r.RunID, r.Status, r.FinishedAt.Format(time.RFC3339))
	return r.Status != domain.StatusFailed, msg
}
