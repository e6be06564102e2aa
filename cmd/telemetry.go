package cmd

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/agentbridge/internal/config"
	"github.com/nextlevelbuilder/agentbridge/internal/tracing/otelexport"
)

// initTelemetry installs the OTLP tracer provider when telemetry is enabled.
// The returned tracer is nil when disabled; shutdown is always safe to call.
func initTelemetry(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		slog.Debug("OTel export available but not enabled (set telemetry.enabled + telemetry.endpoint)")
		return nil, noop
	}

	p, err := otelexport.New(ctx, otelexport.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Protocol:    cfg.Telemetry.Protocol,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     Version,
		Headers:     cfg.Telemetry.Headers,
	}, slog.Default())
	if err != nil {
		slog.Warn("failed to create OTel exporter", "error", err)
		return nil, noop
	}

	p.Install()
	slog.Info("OpenTelemetry OTLP export enabled",
		"endpoint", cfg.Telemetry.Endpoint,
		"protocol", cfg.Telemetry.Protocol,
	)
	return p.Tracer(), p.Shutdown
}
