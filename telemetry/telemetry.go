// Package telemetry installs the OpenTelemetry meter provider that backs
// the command queue counters. Readings are collected on demand and logged
// when the provider shuts down; nothing is exported over the network.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Option configures a [Provider].
type Option func(*Provider)

// WithLogger sets the logger that receives the final readings.
func WithLogger(logger log.Logger) Option {
	return func(p *Provider) { p.log = logger }
}

// Provider owns an SDK meter provider and its manual reader.
type Provider struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
	log    log.Logger
}

// New returns a Provider describing this process as the service
// [pkg.Name] at [pkg.Version].
func New(opts ...Option) *Provider {
	p := &Provider{reader: sdkmetric.NewManualReader()}

	for _, opt := range opts {
		opt(p)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", pkg.Name),
		attribute.String("service.version", pkg.Version()),
	)

	p.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(p.reader),
	)

	return p
}

// Meter returns a named meter recording into p.
func (p *Provider) Meter(name string) metric.Meter {
	return p.mp.Meter(pkg.Name + "/" + name)
}

// Totals collects every int64 sum instrument and returns its value summed
// over all attribute sets, keyed by instrument name.
func (p *Provider) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, pkg.ErrTelemetry.Wrap(err)
	}

	totals := make(map[string]int64)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}

			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}

	return totals, nil
}

// Shutdown logs the final totals at debug level and releases the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if totals, err := p.Totals(ctx); err == nil {
		attrs := make([]slog.Attr, 0, len(totals))
		for name, v := range totals {
			attrs = append(attrs, slog.Int64(name, v))
		}

		p.log.DebugContext(ctx, "telemetry", attrs...)
	}

	if err := p.mp.Shutdown(ctx); err != nil {
		return pkg.ErrTelemetry.Wrap(err)
	}

	return nil
}
