// Package telemetry provides OpenTelemetry tracing and metrics for the rental core.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Endpoint is an OTLP/HTTP collector host:port.
	Endpoint string
	Insecure bool

	// ConnectionString is an Application Insights connection string.
	// Format: InstrumentationKey=xxx;IngestionEndpoint=https://xxx.in.applicationinsights.azure.com/
	// It is used when Endpoint is empty.
	ConnectionString string

	// SampleRate for tracing (0.0 to 1.0).
	SampleRate float64

	// MetricExportInterval is how often to export metrics.
	MetricExportInterval time.Duration
}

// DefaultConfig returns default telemetry configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:           1.0,
		MetricExportInterval: 60 * time.Second,
	}
}

// Provider owns the trace and meter providers.
type Provider struct {
	traceProvider *sdktrace.TracerProvider
	meterProvider *sdkmetric.MeterProvider
	config        Config
	metrics       *Metrics
	exporting     bool
}

// target is where spans and metrics are shipped.
type target struct {
	endpoint string
	insecure bool
	headers  map[string]string
}

func (c Config) target() (target, bool, error) {
	if c.Endpoint != "" {
		return target{endpoint: c.Endpoint, insecure: c.Insecure}, true, nil
	}
	if c.ConnectionString == "" {
		return target{}, false, nil
	}

	instrumentationKey, ingestionEndpoint := parseConnectionString(c.ConnectionString)
	if instrumentationKey == "" {
		return target{}, false, fmt.Errorf("missing InstrumentationKey in connection string")
	}
	if ingestionEndpoint == "" {
		// Default to global ingestion endpoint
		ingestionEndpoint = "https://dc.services.visualstudio.com"
	}
	return target{
		endpoint: strings.TrimPrefix(strings.TrimPrefix(ingestionEndpoint, "https://"), "http://"),
		headers:  map[string]string{"x-ms-instrumentation-key": instrumentationKey},
	}, true, nil
}

// Setup creates the providers and installs them globally.
// Without an endpoint or connection string, spans and metrics are recorded but not exported.
func Setup(ctx context.Context, config Config) (*Provider, error) {
	tgt, exporting, err := config.target()
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
			attribute.String("ai.cloud.role", config.ServiceName),
			attribute.String("ai.cloud.roleInstance", getHostname()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(config.SampleRate)),
	}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if exporting {
		traceExporter, err := newTraceExporter(ctx, tgt)
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))

		metricExporter, err := newMetricExporter(ctx, tgt)
		if err != nil {
			return nil, err
		}
		interval := config.MetricExportInterval
		if interval <= 0 {
			interval = 60 * time.Second
		}
		meterOpts = append(meterOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval)),
		))
	}

	return newProvider(config, exporting, traceOpts, meterOpts)
}

func newProvider(config Config, exporting bool, traceOpts []sdktrace.TracerProviderOption, meterOpts []sdkmetric.Option) (*Provider, error) {
	traceProvider := sdktrace.NewTracerProvider(traceOpts...)
	meterProvider := sdkmetric.NewMeterProvider(meterOpts...)

	otel.SetTracerProvider(traceProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metrics, err := NewMetrics(meterProvider.Meter(config.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &Provider{
		traceProvider: traceProvider,
		meterProvider: meterProvider,
		config:        config,
		metrics:       metrics,
		exporting:     exporting,
	}, nil
}

func newTraceExporter(ctx context.Context, tgt target) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tgt.endpoint)}
	if tgt.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(tgt.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(tgt.headers))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return exporter, nil
}

func newMetricExporter(ctx context.Context, tgt target) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(tgt.endpoint)}
	if tgt.insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(tgt.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(tgt.headers))
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	return exporter, nil
}

func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Tracer returns a tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.traceProvider.Tracer(p.config.ServiceName)
}

// Meter returns the meter for creating instruments.
func (p *Provider) Meter() otelmetric.Meter {
	return p.meterProvider.Meter(p.config.ServiceName)
}

// Metrics returns the rental metrics recorder.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Exporting reports whether telemetry leaves the process.
func (p *Provider) Exporting() bool {
	return p.exporting
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error

	if err := p.traceProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}

	return errors.Join(errs...)
}

// parseConnectionString parses an Azure Application Insights connection string.
func parseConnectionString(connStr string) (instrumentationKey, ingestionEndpoint string) {
	parts := strings.Split(connStr, ";")
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "InstrumentationKey":
			instrumentationKey = value
		case "IngestionEndpoint":
			ingestionEndpoint = strings.TrimSuffix(value, "/")
		}
	}
	return
}

// getHostname returns the hostname or a default.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
