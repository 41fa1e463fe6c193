// Package apm configures OTEL tracing exporters and offers thin tracer/span wrappers.
package apm

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/fba-sourcing/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "empty"
)

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

type TracerOptions struct {
	exporter     sdktrace.SpanExporter
	providerName Provider
	endpoint     string
	serviceName  string
}

type TracerOption func(*TracerOptions)

// WithEndpoint sets the collector endpoint. Defaults to OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) TracerOption {
	return func(o *TracerOptions) {
		o.endpoint = endpoint
	}
}

// WithServiceName sets the resource service name. Defaults to OTEL_SERVICE_NAME.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) {
		o.serviceName = name
	}
}

// WithProvider selects the exporter. Unknown names fall back to EmptyProvider.
func WithProvider(provider Provider) TracerOption {
	return func(o *TracerOptions) {
		o.providerName = provider
	}
}

// ParseProvider maps a configuration string onto a Provider.
func ParseProvider(s string) Provider {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ZipkinProvider, OTLPGRPCProvider, OTLPHTTPProvider, ConsoleProvider:
		return p
	default:
		return EmptyProvider
	}
}

func newExporter(opts *TracerOptions) (sdktrace.SpanExporter, error) {
	switch opts.providerName {
	case ZipkinProvider:
		return zipkin.New(opts.endpoint)
	case OTLPGRPCProvider:
		return otlptracegrpc.New(context.Background(), otlptracegrpc.WithEndpointURL(opts.endpoint))
	case OTLPHTTPProvider:
		return otlptracehttp.New(context.Background(), otlptracehttp.WithEndpointURL(opts.endpoint))
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, nil
	}
}

// NewTraceProvider installs a global tracer provider. Exporter failures are
// logged and leave tracing disabled rather than stopping the run.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &TracerOptions{
		providerName: EmptyProvider,
		endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		serviceName:  os.Getenv("OTEL_SERVICE_NAME"),
	}
	for _, opt := range options {
		opt(opts)
	}

	exp, err := newExporter(opts)
	if err != nil {
		log.Error(context.Background(), "trace exporter init failed", "provider", string(opts.providerName), "error", err)
		return emptyTraceProvider{}
	}
	if exp == nil {
		return emptyTraceProvider{}
	}
	opts.exporter = exp

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", string(opts.providerName)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
