package telemetry

import (
	"context"

	"github.com/vango-dev/keyedlist/pkg/keyed"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "keyedlist"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "keyedlist").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Context is the parent context of every cycle span.
	// Default: context.Background()
	Context context.Context
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(t trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = t
	}
}

// WithParentContext sets the parent context of cycle spans.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

// Tracing opens one span per reconciliation cycle.
type Tracing struct {
	tracer trace.Tracer
	ctx    context.Context
}

// NewTracing creates the observer. Without WithTracer the tracer comes
// from the global OpenTelemetry provider, so configure it in main():
//
//	otel.SetTracerProvider(tp)
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Tracing{tracer: config.Tracer, ctx: config.Context}
}

// StartCycle implements keyed.Observer.
func (t *Tracing) StartCycle(region string) func(keyed.Stats, error) {
	name := "keyed.reconcile"
	if region != "" {
		name += " " + region
	}
	_, span := t.tracer.Start(t.ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("keyed.region", region)),
	)

	return func(s keyed.Stats, err error) {
		defer span.End()
		span.SetAttributes(
			attribute.Int64("keyed.cycle", int64(s.Cycle)),
			attribute.Int("keyed.rows", s.Rows),
			attribute.Int("keyed.reused", s.Reused),
			attribute.Int("keyed.inserted", s.Inserted),
			attribute.Int("keyed.moved", s.Moved),
			attribute.Int("keyed.removed", s.Removed),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}
