package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records flow executions through an otel meter exported to Prometheus.
// A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	flowCounter   otelmetric.Int64Counter
	flowDuration  otelmetric.Float64Histogram
}

// New registers the exporter with the default Prometheus registerer.
func New(serviceName string) *Observability {
	return NewWithRegisterer(serviceName, nil)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer) *Observability {
	var opts []prometheus.Option
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	if reg == nil {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	flowCounter, _ := meter.Int64Counter(
		"flows.executed",
		otelmetric.WithDescription("Number of user flows executed"),
	)

	flowDuration, _ := meter.Float64Histogram(
		"flows.duration",
		otelmetric.WithDescription("User flow duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		flowCounter:   flowCounter,
		flowDuration:  flowDuration,
	}
}

func (o *Observability) RecordFlow(ctx context.Context, flow, status string) {
	if o == nil || o.flowCounter == nil {
		return
	}
	o.flowCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordFlowDuration(ctx context.Context, flow string, duration time.Duration, status string) {
	if o == nil || o.flowDuration == nil {
		return
	}
	o.flowDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("status", status),
	))
}

// Track records one execution of flow; call the returned func with the outcome.
func (o *Observability) Track(ctx context.Context, flow string) func(err error) {
	start := time.Now()
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.RecordFlow(ctx, flow, status)
		o.RecordFlowDuration(ctx, flow, time.Since(start), status)
	}
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
