package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sundial-ai/sundial/assistant"
)

var globalTracerProvider *sdktrace.TracerProvider

// InitTracing initializes OpenTelemetry tracing. With consoleExport set,
// spans are pretty-printed to stdout; otherwise spans are recorded but
// not exported, which keeps trace IDs flowing into logs.
func InitTracing(serviceName string, consoleExport bool) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)

	if consoleExport {
		exporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracerProvider = tp
	return tp, nil
}

// GetTracer returns a tracer from the current global tracer provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// TracingMiddleware wraps an agent with a span per turn.
type TracingMiddleware struct {
	agent    assistant.Agent
	spanName string
	tracer   trace.Tracer
}

// Verify that TracingMiddleware implements the Agent interface.
var _ assistant.Agent = (*TracingMiddleware)(nil)

// NewTracingMiddleware creates a tracing decorator for agent.
func NewTracingMiddleware(agent assistant.Agent, spanName string) *TracingMiddleware {
	if spanName == "" {
		spanName = fmt.Sprintf("agent.%s.process", agent.Name())
	}

	return &TracingMiddleware{
		agent:    agent,
		spanName: spanName,
		tracer:   GetTracer("sundial.observability"),
	}
}

// Name returns the agent name.
func (t *TracingMiddleware) Name() string {
	return t.agent.Name()
}

// Capabilities returns the agent capabilities.
func (t *TracingMiddleware) Capabilities() []string {
	return t.agent.Capabilities()
}

// Process runs the wrapped agent inside a span. Routing metadata on the
// response is recorded as span attributes.
func (t *TracingMiddleware) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	ctx, span := t.tracer.Start(ctx, t.spanName, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.name", t.agent.Name()),
		attribute.String("message.role", message.Role),
		attribute.Int("message.content_length", len(message.Content)),
	)

	response, err := t.agent.Process(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if category, ok := response.Metadata["routed_category"].(string); ok {
		span.SetAttributes(attribute.String("routing.category", category))
	}
	if agentName, ok := response.Metadata["routed_agent"].(string); ok {
		span.SetAttributes(attribute.String("routing.agent", agentName))
	}
	span.SetStatus(codes.Ok, "")

	return response, nil
}

// Shutdown gracefully shuts down the tracer provider.
func Shutdown(ctx context.Context) error {
	if globalTracerProvider != nil {
		return globalTracerProvider.Shutdown(ctx)
	}
	return nil
}
