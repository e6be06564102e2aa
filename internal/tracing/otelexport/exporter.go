// Package otelexport installs an OpenTelemetry tracer provider that ships
// agent and action spans to an OTLP collector.
package otelexport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "agentbridge"

// Config configures the OpenTelemetry OTLP exporter.
type Config struct {
	Endpoint    string            // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            // "grpc" (default) or "http"
	Insecure    bool              // skip TLS for local dev
	ServiceName string            // OTEL service name (default "agentbridge")
	Version     string            // reported as service.version
	Headers     map[string]string // extra headers (auth tokens, etc.)

	// Exporter replaces the OTLP exporter. Spans are exported synchronously.
	Exporter sdktrace.SpanExporter
}

// Provider owns the SDK tracer provider and its exporter.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *slog.Logger
}

// New creates a tracer provider exporting to cfg.Endpoint.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if cfg.Endpoint == "" && cfg.Exporter == nil {
		return nil, fmt.Errorf("OTLP endpoint is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	var spanOpt sdktrace.TracerProviderOption
	if cfg.Exporter != nil {
		spanOpt = sdktrace.WithSyncer(cfg.Exporter)
	} else {
		exporter, err := newOTLPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("otel exporter: %w", err)
		}
		spanOpt = sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxExportBatchSize(100),
			sdktrace.WithBatchTimeout(5*time.Second),
		)
	}

	tp := sdktrace.NewTracerProvider(spanOpt, sdktrace.WithResource(res))

	return &Provider{
		provider: tp,
		tracer:   tp.Tracer("github.com/nextlevelbuilder/agentbridge"),
		logger:   logger,
	}, nil
}

func newOTLPExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case "http":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default: // "grpc"
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
}

// Install makes p the global tracer provider, so otel.Tracer picks it up.
func (p *Provider) Install() {
	if p == nil {
		return
	}
	otel.SetTracerProvider(p.provider)
}

// Tracer returns the provider's tracer. A nil Provider yields the global one.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return otel.Tracer("github.com/nextlevelbuilder/agentbridge")
	}
	return p.tracer
}

// Shutdown flushes remaining spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.logger.Info("otel exporter shutting down")
	return p.provider.Shutdown(ctx)
}
