// Package observability wires logging, metrics and tracing for the service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls how observability is initialized.
type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	LogLevel        string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampleRate float64
}

// Observability bundles the logger, tracer and metrics shared by all modules.
type Observability struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Tracer         trace.Tracer
	Registry       *prometheus.Registry
	Metrics        OperationMetrics

	shutdown func(context.Context) error
}

// Init builds an Observability from cfg. Tracing is exported over OTLP/HTTP
// only when an endpoint is configured.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	logger := NewLogger(cfg.Environment, cfg.LogLevel).With(
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.Version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := &Observability{
		Logger:   logger,
		Registry: registry,
		Metrics:  NewOperationMetrics(registry, "dingleup"),
		shutdown: func(context.Context) error { return nil },
	}

	if cfg.OTLPEndpoint == "" {
		obs.TracerProvider = noop.NewTracerProvider()
		obs.Tracer = obs.TracerProvider.Tracer(cfg.ServiceName)
		logger.InfoContext(ctx, "Tracing disabled: no OTLP endpoint configured")
		return obs, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	rate := cfg.TraceSampleRate
	if rate <= 0 {
		rate = 0.1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.Version),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)
	otel.SetTracerProvider(tp)

	obs.TracerProvider = tp
	obs.Tracer = tp.Tracer(cfg.ServiceName)
	obs.shutdown = tp.Shutdown

	logger.InfoContext(ctx, "Tracing enabled", slog.String("otlp_endpoint", cfg.OTLPEndpoint))
	return obs, nil
}

// NewNoop returns an Observability suitable for tests: discarding logger,
// noop tracer and a private registry.
func NewNoop() *Observability {
	registry := prometheus.NewRegistry()
	tp := noop.NewTracerProvider()
	return &Observability{
		Logger:         slog.New(slog.NewTextHandler(discard{}, nil)),
		TracerProvider: tp,
		Tracer:         tp.Tracer("test"),
		Registry:       registry,
		Metrics:        NewNoopMetrics(),
		shutdown:       func(context.Context) error { return nil },
	}
}

// MetricsHandler serves the prometheus registry.
func (o *Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry})
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	if err := o.shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// NewLogger builds the process logger. Development uses a text handler,
// everything else JSON.
func NewLogger(environment, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if environment == "development" || environment == "" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
