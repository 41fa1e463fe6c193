// Package guarded decorates a product provider with a circuit breaker, an
// optional shared request quota and telemetry.
package guarded

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/fba-sourcing/business/catalog/app"
	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/circuitbreaker"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/fba-sourcing/business/catalog/infra/guarded"
	meterName  = "github.com/fd1az/fba-sourcing/business/catalog/infra/guarded"
)

// Config configures the decorator.
type Config struct {
	Breaker circuitbreaker.Config
	// QuotaPerMinute enables a limiter shared by every worker. Zero disables it.
	QuotaPerMinute int
}

// DefaultConfig returns breaker defaults named after the provider.
func DefaultConfig(source domain.Source) Config {
	return Config{Breaker: circuitbreaker.DefaultConfig(string(source))}
}

// Provider wraps an app.ProductProvider.
type Provider struct {
	inner   app.ProductProvider
	breaker *circuitbreaker.CircuitBreaker[*domain.ProductRecord]
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer

	calls    metric.Int64Counter
	rejected metric.Int64Counter
}

var (
	_ app.ProductProvider = (*Provider)(nil)
	_ app.QuotaAware      = (*Provider)(nil)
)

// Wrap decorates inner.
func Wrap(inner app.ProductProvider, cfg Config, log logger.LoggerInterface) (*Provider, error) {
	p := &Provider{
		inner:  inner,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = circuitbreaker.DefaultConfig(string(inner.Source()))
	}
	breakerCfg.IsSuccessful = countsAsHealthy
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		level := log.Info
		if to == gobreaker.StateOpen {
			level = log.Warn
		}
		level(context.Background(), "provider circuit state changed",
			"provider", name,
			"from", from.String(),
			"to", to.String())
	}
	p.breaker = circuitbreaker.New[*domain.ProductRecord](breakerCfg)

	if cfg.QuotaPerMinute > 0 {
		p.limiter = ratelimit.New(cfg.QuotaPerMinute)
	}

	if err := p.initMetrics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.calls, err = meter.Int64Counter(
		"provider_calls_total",
		metric.WithDescription("Provider calls by result"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	p.rejected, err = meter.Int64Counter(
		"provider_rejections_total",
		metric.WithDescription("Calls refused by the circuit breaker or quota"),
		metric.WithUnit("{call}"),
	)
	return err
}

// countsAsHealthy keeps "no such product" and caller cancellation from
// tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	switch domain.ClassifyFailure(err) {
	case domain.FailureNotFound, domain.FailureCancelled:
		return true
	}
	return false
}

func (p *Provider) Source() domain.Source {
	return p.inner.Source()
}

// SharedQuota reports whether calls already pass through a shared limiter.
func (p *Provider) SharedQuota() bool {
	return p.limiter != nil
}

// BreakerName identifies the breaker in health reports.
func (p *Provider) BreakerName() string {
	return p.breaker.Name()
}

// BreakerState is the breaker's current state.
func (p *Provider) BreakerState() gobreaker.State {
	return p.breaker.State()
}

// BreakerOpen reports whether the provider is currently refusing calls.
func (p *Provider) BreakerOpen() bool {
	return p.breaker.IsOpen()
}

func (p *Provider) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	return p.guard(ctx, "identifier", id, func(ctx context.Context) (*domain.ProductRecord, error) {
		return p.inner.FetchByIdentifier(ctx, id)
	})
}

func (p *Provider) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	return p.guard(ctx, "keyword", text, func(ctx context.Context) (*domain.ProductRecord, error) {
		return p.inner.FetchByKeyword(ctx, text)
	})
}

func (p *Provider) guard(
	ctx context.Context,
	mode, query string,
	fn func(context.Context) (*domain.ProductRecord, error),
) (*domain.ProductRecord, error) {
	source := p.inner.Source()
	ctx, span := p.tracer.Start(ctx, "provider."+string(source)+"."+mode,
		trace.WithAttributes(
			attribute.String("provider", string(source)),
			attribute.String("mode", mode),
		),
	)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("provider", string(source)),
		attribute.String("mode", mode),
	}

	if p.limiter != nil {
		start := time.Now()
		if err := p.limiter.Wait(ctx); err != nil {
			kind := domain.FailureRateLimited
			if ctx.Err() != nil {
				kind = domain.ClassifyFailure(ctx.Err())
			}
			p.rejected.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("reason", "quota"))...))
			span.RecordError(err)
			return nil, domain.NewFetchError(kind, source, query, err)
		}
		span.SetAttributes(attribute.Int64("quota_wait_ms", time.Since(start).Milliseconds()))
	}

	rec, err := p.breaker.Execute(func() (*domain.ProductRecord, error) {
		return fn(ctx)
	})
	if err != nil {
		if circuitbreaker.IsRejection(err) {
			p.rejected.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("reason", "circuit"))...))
			err = domain.NewFetchError(domain.FailureCircuitOpen, source, query, err)
		}
		kind := domain.ClassifyFailure(err)
		p.calls.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("result", string(kind)))...))
		span.SetAttributes(attribute.String("failure", string(kind)))
		if !errors.Is(err, context.Canceled) {
			span.RecordError(err)
		}
		return nil, err
	}

	p.calls.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("result", "ok"))...))
	return rec, nil
}
