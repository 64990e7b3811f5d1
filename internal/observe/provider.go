// SPDX-License-Identifier: EPL-2.0

package observe

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName is the service name reported in telemetry. Default: "audconv".
	ServiceName string

	// ServiceVersion is the service version reported in telemetry.
	ServiceVersion string

	// TraceExporter is an optional span exporter. When nil, spans are
	// recorded but not exported.
	TraceExporter sdktrace.SpanExporter
}

// Provider holds the SDK providers set up by InitProvider.
type Provider struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider

	// Gatherer exposes the collected metrics in the Prometheus format, for
	// WriteTextfile or an HTTP handler.
	Gatherer prometheus.Gatherer

	shutdownFuncs []func(context.Context) error
}

// InitProvider initialises the OTel SDK with the given config. It sets up:
//
//   - A [sdkmetric.MeterProvider] bridged to a private Prometheus registry.
//   - A [sdktrace.TracerProvider] with the configured exporter, if any.
//
// Both providers are registered as the global OTel providers. Call Shutdown
// on the result before exiting.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "audconv"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	p := &Provider{Gatherer: reg}

	p.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(p.MeterProvider)
	p.shutdownFuncs = append(p.shutdownFuncs, p.MeterProvider.Shutdown)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}
	p.TracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(p.TracerProvider)
	p.shutdownFuncs = append(p.shutdownFuncs, p.TracerProvider.Shutdown)

	return p, nil
}

// Shutdown flushes and closes the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if e := fn(ctx); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}
