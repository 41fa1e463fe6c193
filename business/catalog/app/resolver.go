package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

const (
	tracerName = "github.com/fd1az/fba-sourcing/business/catalog"
	meterName  = "github.com/fd1az/fba-sourcing/business/catalog"
)

// ResolverConfig replaces every package-level knob of the enrichment stage.
type ResolverConfig struct {
	// NoFallback disables the secondary keyword lookup.
	NoFallback bool
	// Workers bounds the number of candidates resolved concurrently.
	Workers int
	// CallTimeout bounds every single provider call.
	CallTimeout time.Duration
	// PostSuccessPause is slept by a worker after each successful fetch.
	PostSuccessPause time.Duration
	// KeywordLimit is how many title words the keyword fallback sends.
	KeywordLimit int
	// Denylist holds case-insensitive title substrings that discard a record.
	Denylist []string
}

// DefaultResolverConfig returns the production defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Workers:          4,
		CallTimeout:      10 * time.Second,
		PostSuccessPause: time.Second,
		KeywordLimit:     8,
	}
}

// PauseFunc waits for d or until ctx is done.
type PauseFunc func(ctx context.Context, d time.Duration) error

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithPauseFunc replaces the post-success sleep.
func WithPauseFunc(fn PauseFunc) ResolverOption {
	return func(r *Resolver) {
		r.pause = fn
	}
}

type resolverMetrics struct {
	lookups        metric.Int64Counter
	outcomes       metric.Int64Counter
	lookupDuration metric.Float64Histogram
}

// Resolver enriches candidates through the provider cascade.
type Resolver struct {
	primary   ProductProvider
	secondary ProductProvider
	cfg       ResolverConfig
	denylist  []string
	pause     PauseFunc
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	metrics   *resolverMetrics
}

// NewResolver builds a resolver. secondary may be nil, which removes steps 4 and 5.
func NewResolver(
	primary, secondary ProductProvider,
	cfg ResolverConfig,
	log logger.LoggerInterface,
	opts ...ResolverOption,
) (*Resolver, error) {
	if primary == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("resolver requires a primary provider"))
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultResolverConfig().CallTimeout
	}

	denylist := make([]string, 0, len(cfg.Denylist))
	for _, term := range cfg.Denylist {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			denylist = append(denylist, term)
		}
	}

	r := &Resolver{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		denylist:  denylist,
		pause:     sleepCtx,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.initMetrics(); err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "resolver metrics", err)
	}

	return r, nil
}

func (r *Resolver) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &resolverMetrics{}

	r.metrics.lookups, err = meter.Int64Counter(
		"catalog_lookups_total",
		metric.WithDescription("Provider lookups by provider, cascade step and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	r.metrics.outcomes, err = meter.Int64Counter(
		"catalog_candidate_outcomes_total",
		metric.WithDescription("Candidates by enrichment outcome"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return err
	}

	r.metrics.lookupDuration, err = meter.Float64Histogram(
		"catalog_lookup_duration_ms",
		metric.WithDescription("Provider lookup latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// Resolve enriches every candidate. Records come back in input order. When ctx
// is cancelled the batch holds the candidates that finished, and ctx's error is
// returned alongside it.
func (r *Resolver) Resolve(ctx context.Context, candidates []domain.CandidateRef) (*domain.Batch, error) {
	ctx, span := r.tracer.Start(ctx, "catalog.resolve",
		trace.WithAttributes(
			attribute.Int("candidates", len(candidates)),
			attribute.Int("workers", r.cfg.Workers),
			attribute.Bool("no_fallback", r.cfg.NoFallback),
		),
	)
	defer span.End()

	// one slot per candidate; each worker writes only its own index
	slots := make([]*domain.Resolution, len(candidates))
	attempted := 0

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)

	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		attempted++
		g.Go(func() error {
			if res, ok := r.resolveOne(ctx, i, c); ok {
				slots[i] = &res
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &domain.Batch{Stats: domain.Stats{Attempted: attempted}}
	for _, res := range slots {
		if res == nil {
			continue
		}
		batch.Stats.Add(*res)
		batch.Resolutions = append(batch.Resolutions, *res)
		if res.Record != nil {
			batch.Records = append(batch.Records, *res.Record)
		}
	}

	span.SetAttributes(
		attribute.Int("analyzed", batch.Stats.Analyzed),
		attribute.Int("fallback_success", batch.Stats.FallbackSuccess),
		attribute.Int("skipped_invalid", batch.Stats.SkippedInvalid),
		attribute.Int("skipped_no_data", batch.Stats.SkippedNoData),
		attribute.Int("discarded", batch.Stats.Discarded),
	)

	if err := ctx.Err(); err != nil {
		batch.Cancelled = true
		span.RecordError(err)
		r.logger.Warn(ctx, "enrichment cancelled",
			"attempted", attempted,
			"completed", batch.Stats.Completed,
			"error", err)
		return batch, err
	}

	r.logger.Info(ctx, "enrichment finished",
		"candidates", len(candidates),
		"analyzed", batch.Stats.Analyzed,
		"fallback_success", batch.Stats.FallbackSuccess,
		"skipped_invalid", batch.Stats.SkippedInvalid,
		"skipped_no_data", batch.Stats.SkippedNoData,
		"discarded", batch.Stats.Discarded)

	return batch, nil
}

// resolveOne runs the cascade for one candidate. It returns false when the
// candidate was interrupted by cancellation and must be left out of the batch.
func (r *Resolver) resolveOne(ctx context.Context, index int, c domain.CandidateRef) (domain.Resolution, bool) {
	res := domain.Resolution{Index: index, Candidate: c}

	if ctx.Err() != nil {
		return res, false
	}

	if !c.Resolvable() {
		res.Outcome = domain.OutcomeSkippedInvalidInput
		r.logger.Debug(ctx, "candidate skipped, no valid identifier or title", "index", index)
		r.recordOutcome(ctx, res.Outcome)
		return res, true
	}

	for _, l := range r.plan(c) {
		if ctx.Err() != nil {
			return res, false
		}

		rec, attempt := r.call(ctx, c, l)
		res.Attempts = append(res.Attempts, attempt)
		if rec == nil {
			if ctx.Err() != nil {
				return res, false
			}
			continue
		}

		// first successful fetch ends the cascade, whether or not it passes the filters
		res.Step = l.step
		if reason, rejected := r.screen(rec); rejected {
			res.Outcome = domain.OutcomeDiscarded
			res.DiscardReason = reason
			r.logger.Info(ctx, "record discarded",
				"candidate", c.Label(),
				"step", l.step.String(),
				"reason", string(reason))
		} else {
			accepted := *rec
			accepted.Estimated = l.estimated
			if accepted.ID == "" && l.mode == domain.ModeIdentifier {
				accepted.ID = l.query
			}
			if accepted.Source == "" {
				accepted.Source = l.provider.Source()
			}
			res.Outcome = domain.OutcomeResolved
			res.Record = &accepted
		}

		r.pauseAfterSuccess(ctx, l.provider)
		r.recordOutcome(ctx, res.Outcome)
		return res, true
	}

	res.Outcome = domain.OutcomeSkippedNoData
	r.logger.Info(ctx, "no provider returned data", "candidate", c.Label(), "attempts", len(res.Attempts))
	r.recordOutcome(ctx, res.Outcome)
	return res, true
}

type fetchResult struct {
	rec *domain.ProductRecord
	err error
}

// call performs one bounded provider call. The provider runs in its own
// goroutine so a call that ignores its context still times out.
func (r *Resolver) call(ctx context.Context, c domain.CandidateRef, l lookup) (*domain.ProductRecord, domain.Attempt) {
	ctx, span := r.tracer.Start(ctx, "catalog.lookup",
		trace.WithAttributes(
			attribute.String("provider", string(l.provider.Source())),
			attribute.String("step", l.step.String()),
			attribute.String("mode", string(l.mode)),
		),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	start := time.Now()
	go func() {
		var fr fetchResult
		if l.mode == domain.ModeIdentifier {
			fr.rec, fr.err = l.provider.FetchByIdentifier(callCtx, l.query)
		} else {
			fr.rec, fr.err = l.provider.FetchByKeyword(callCtx, l.query)
		}
		done <- fr
	}()

	var fr fetchResult
	select {
	case fr = <-done:
	case <-callCtx.Done():
		fr.err = callCtx.Err()
	}

	attempt := domain.Attempt{
		Step:     l.step,
		Provider: string(l.provider.Source()),
		Mode:     l.mode,
		Query:    l.query,
		Duration: time.Since(start),
	}

	if fr.err == nil && fr.rec == nil {
		fr.err = domain.NotFound(l.provider.Source(), l.query)
	}

	if fr.err != nil {
		attempt.Failure = domain.ClassifyFailure(fr.err)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			attempt.Failure = domain.FailureTimeout
		}
		span.SetAttributes(attribute.String("failure", string(attempt.Failure)))

		args := []any{
			"candidate", c.Label(),
			"provider", attempt.Provider,
			"step", l.step.String(),
			"failure", string(attempt.Failure),
			"error", fr.err,
		}
		if attempt.Failure == domain.FailureNotFound || attempt.Failure == domain.FailureCancelled {
			r.logger.Debug(ctx, "lookup returned no data", args...)
		} else {
			r.logger.Warn(ctx, "lookup failed", args...)
		}
		r.recordLookup(ctx, attempt)
		return nil, attempt
	}

	r.recordLookup(ctx, attempt)
	return fr.rec, attempt
}

func (r *Resolver) pauseAfterSuccess(ctx context.Context, p ProductProvider) {
	if r.cfg.PostSuccessPause <= 0 {
		return
	}
	if qa, ok := p.(QuotaAware); ok && qa.SharedQuota() {
		return
	}
	// an interrupted pause does not undo the completed lookup
	_ = r.pause(ctx, r.cfg.PostSuccessPause)
}

func (r *Resolver) recordLookup(ctx context.Context, a domain.Attempt) {
	result := "ok"
	if !a.Succeeded() {
		result = string(a.Failure)
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", a.Provider),
		attribute.String("step", a.Step.String()),
		attribute.String("result", result),
	)
	r.metrics.lookups.Add(ctx, 1, attrs)
	r.metrics.lookupDuration.Record(ctx, float64(a.Duration.Milliseconds()), attrs)
}

func (r *Resolver) recordOutcome(ctx context.Context, o domain.Outcome) {
	r.metrics.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(o))))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
