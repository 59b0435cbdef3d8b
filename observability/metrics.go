package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/sundial-ai/sundial/assistant"
)

var globalMeterProvider *sdkmetric.MeterProvider

// InitMetrics initializes OpenTelemetry metrics with Prometheus export.
// The registered collectors surface on the server's /metrics endpoint.
func InitMetrics(serviceName string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)
	globalMeterProvider = provider
	return provider, nil
}

// GetMeter returns a meter from the current global meter provider.
func GetMeter(name string) metric.Meter {
	return otel.Meter(name)
}

// MetricsMiddleware wraps an agent with per-turn metrics: request and
// error counts, latency, and routed category breakdowns.
type MetricsMiddleware struct {
	agent            assistant.Agent
	meter            metric.Meter
	requestCounter   metric.Int64Counter
	errorCounter     metric.Int64Counter
	routeCounter     metric.Int64Counter
	latencyHistogram metric.Float64Histogram
}

// Verify that MetricsMiddleware implements the Agent interface.
var _ assistant.Agent = (*MetricsMiddleware)(nil)

// NewMetricsMiddleware creates a metrics decorator for agent.
func NewMetricsMiddleware(agent assistant.Agent) (*MetricsMiddleware, error) {
	meter := GetMeter("sundial.observability")

	requestCounter, err := meter.Int64Counter(
		"sundial.agent.requests",
		metric.WithDescription("Total number of agent turns"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"sundial.agent.errors",
		metric.WithDescription("Total number of failed agent turns"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	routeCounter, err := meter.Int64Counter(
		"sundial.agent.routes",
		metric.WithDescription("Turns handled per routed category"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create route counter: %w", err)
	}

	latencyHistogram, err := meter.Float64Histogram(
		"sundial.agent.latency",
		metric.WithDescription("Agent turn latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	return &MetricsMiddleware{
		agent:            agent,
		meter:            meter,
		requestCounter:   requestCounter,
		errorCounter:     errorCounter,
		routeCounter:     routeCounter,
		latencyHistogram: latencyHistogram,
	}, nil
}

// Name returns the agent name.
func (m *MetricsMiddleware) Name() string {
	return m.agent.Name()
}

// Capabilities returns the agent capabilities.
func (m *MetricsMiddleware) Capabilities() []string {
	return m.agent.Capabilities()
}

// Process runs the wrapped agent and records metrics for the turn.
func (m *MetricsMiddleware) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	started := time.Now()

	attrs := []attribute.KeyValue{
		attribute.String("agent.name", m.agent.Name()),
	}

	response, err := m.agent.Process(ctx, message)
	latencyMs := float64(time.Since(started).Microseconds()) / 1000.0

	if err != nil {
		errorAttrs := append(attrs,
			attribute.String("status", "error"),
			attribute.String("error.type", fmt.Sprintf("%T", err)),
		)
		m.requestCounter.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
		m.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(errorAttrs...))
		return nil, err
	}

	successAttrs := append(attrs, attribute.String("status", "success"))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(successAttrs...))
	m.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(successAttrs...))

	if category, ok := response.Metadata["routed_category"].(string); ok {
		m.routeCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category),
		))
	}

	return response, nil
}

// ShutdownMetrics gracefully shuts down the meter provider.
func ShutdownMetrics(ctx context.Context) error {
	if globalMeterProvider != nil {
		return globalMeterProvider.Shutdown(ctx)
	}
	return nil
}
