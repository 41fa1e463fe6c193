// Package main is the entry point for the sourcing pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/fba-sourcing/business/allocation"
	"github.com/fd1az/fba-sourcing/business/catalog"
	"github.com/fd1az/fba-sourcing/business/demand"
	"github.com/fd1az/fba-sourcing/business/profitability"
	"github.com/fd1az/fba-sourcing/business/profitability/infra/overrides"
	"github.com/fd1az/fba-sourcing/business/sourcing"
	sourcingDI "github.com/fd1az/fba-sourcing/business/sourcing/di"
	sourcingDomain "github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/infra/files"
	"github.com/fd1az/fba-sourcing/internal/apm"
	"github.com/fd1az/fba-sourcing/internal/config"
	"github.com/fd1az/fba-sourcing/internal/health"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/metrics"
	"github.com/fd1az/fba-sourcing/internal/monolith"
	"github.com/fd1az/fba-sourcing/internal/scheduler"
	"github.com/fd1az/fba-sourcing/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	candidates string
	outDir     string
	budget     string
	costs      string
	noFallback bool
	offline    bool
	schedule   string
	plain      bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.candidates, "candidates", "", "Candidate list (csv or tsv with id, estimatedId, title)")
	flag.StringVar(&opts.outDir, "out", "", "Directory for output tables (overrides output.dir)")
	flag.StringVar(&opts.budget, "budget", "", "Total purchase budget (overrides allocation.default_budget)")
	flag.StringVar(&opts.costs, "costs", "", "Supplier cost table (.csv, .tsv or .yaml)")
	flag.BoolVar(&opts.noFallback, "no-fallback", false, "Only look candidates up by identifier on the primary provider")
	flag.BoolVar(&opts.offline, "offline", false, "Use the fixture catalog instead of network providers")
	flag.StringVar(&opts.schedule, "schedule", "", "Cron spec for repeated runs (overrides schedule.cron)")
	flag.BoolVar(&opts.plain, "plain", false, "Disable colors in console output")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fba-sourcing %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if opts.candidates == "" {
		fmt.Fprintln(os.Stderr, "error: -candidates is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}
	if opts.plain {
		ui.Plain()
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting sourcing pipeline",
		"version", version,
		"environment", cfg.App.Environment,
		"primary", cfg.Catalog.Primary,
		"secondary", cfg.Catalog.Secondary)

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	healthServer := health.NewServer(cfg.App.HealthPort, version, log)

	mono := monolith.New(cfg, log, healthServer)

	// Define modules in dependency order
	modules := []monolith.Module{
		&catalog.Module{},
		&profitability.Module{},
		&demand.Module{},
		&allocation.Module{},
		&sourcing.Module{}, // Depends on all of the above
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	pipeline := sourcingDI.GetPipeline(mono.Services())
	runOnce := func(ctx context.Context) error {
		in, err := loadInput(opts, cfg)
		if err != nil {
			return err
		}
		_, err = pipeline.Run(ctx, in)
		return err
	}

	if cfg.Schedule.Cron == "" {
		return runOnce(ctx)
	}

	healthServer.Start()
	log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		healthServer.Stop(shutdownCtx)
	}()

	return runScheduled(ctx, cfg.Schedule.Cron, runOnce, log)
}

// applyFlags layers command line overrides over the loaded configuration.
func applyFlags(cfg *config.Config, opts options) error {
	if opts.offline {
		cfg.Catalog.Primary = config.ProviderFixture
		cfg.Catalog.Secondary = config.ProviderNone
	}
	if opts.noFallback {
		cfg.Catalog.NoFallback = true
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.budget != "" {
		cfg.Allocation.DefaultBudget = opts.budget
	}
	if opts.schedule != "" {
		cfg.Schedule.Cron = opts.schedule
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// loadInput reads the candidate list and cost table. Files are re-read on
// every run so scheduled runs pick up edits.
func loadInput(opts options, cfg *config.Config) (sourcingDomain.Input, error) {
	candidates, err := files.LoadCandidates(opts.candidates)
	if err != nil {
		return sourcingDomain.Input{}, err
	}
	in := sourcingDomain.Input{
		Candidates: candidates,
		Budget:     cfg.Allocation.DefaultBudget,
	}
	if opts.costs != "" {
		if in.Overrides, err = overrides.Load(opts.costs); err != nil {
			return sourcingDomain.Input{}, err
		}
	}
	return in, nil
}

func runScheduled(ctx context.Context, spec string, job scheduler.Job, log logger.LoggerInterface) error {
	s := scheduler.New(ctx, log)
	if err := s.Add(spec, "sourcing-run", job); err != nil {
		return err
	}
	s.Start()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	s.Stop()
	return nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	traceProvider := apm.NewTraceProvider(log,
		apm.WithProvider(apm.ParseProvider(cfg.Telemetry.TraceProvider)),
		apm.WithServiceName(cfg.Telemetry.ServiceName),
		apm.WithEndpoint(cfg.Telemetry.OTLPEndpoint))
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
		return func() { traceProvider.Stop() }
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer := metrics.ServePrometheusMetrics(
		metrics.WithPort(strconv.Itoa(port)),
		metrics.WithErrorHandler(func(err error) {
			log.Warn(context.Background(), "prometheus server stopped", "error", err)
		}))
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		promServer.Stop(shutdownCtx)
		meterProvider.Shutdown(shutdownCtx)
		traceProvider.Stop()
	}
}
