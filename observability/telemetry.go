// Package observability provides OpenTelemetry integration and audit
// logging for the launcher pipeline.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides observability features.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordInvocation counts an invocation of the launcher.
	RecordInvocation(ctx context.Context, labels map[string]string)

	// RecordDenial counts a policy denial.
	RecordDenial(ctx context.Context, labels map[string]string)

	// RecordAuthFailure counts a failed authentication.
	RecordAuthFailure(ctx context.Context, labels map[string]string)

	// RecordFailure counts any other fatal pipeline error.
	RecordFailure(ctx context.Context, labels map[string]string)
}

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// ServiceVersion is the service version.
	ServiceVersion string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "caprun",
		ServiceVersion: "1.0.0",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "caprun_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	invocationCounter  metric.Int64Counter
	deniedCounter      metric.Int64Counter
	authFailureCounter metric.Int64Counter
	failureCounter     metric.Int64Counter
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}

	var err error

	t.invocationCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"invocations_total",
		metric.WithDescription("Total number of launcher invocations"),
	)
	if err != nil {
		return nil, err
	}

	t.deniedCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"policy_denied_total",
		metric.WithDescription("Total number of policy denials"),
	)
	if err != nil {
		return nil, err
	}

	t.authFailureCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"auth_failures_total",
		metric.WithDescription("Total number of failed authentications"),
	)
	if err != nil {
		return nil, err
	}

	t.failureCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"failures_total",
		metric.WithDescription("Total number of fatal pipeline errors"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

// RecordInvocation implements Telemetry.RecordInvocation.
func (t *telemetry) RecordInvocation(ctx context.Context, labels map[string]string) {
	t.add(ctx, t.invocationCounter, labels)
}

// RecordDenial implements Telemetry.RecordDenial.
func (t *telemetry) RecordDenial(ctx context.Context, labels map[string]string) {
	t.add(ctx, t.deniedCounter, labels)
}

// RecordAuthFailure implements Telemetry.RecordAuthFailure.
func (t *telemetry) RecordAuthFailure(ctx context.Context, labels map[string]string) {
	t.add(ctx, t.authFailureCounter, labels)
}

// RecordFailure implements Telemetry.RecordFailure.
func (t *telemetry) RecordFailure(ctx context.Context, labels map[string]string) {
	t.add(ctx, t.failureCounter, labels)
}

func (t *telemetry) add(ctx context.Context, counter metric.Int64Counter, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := labelsToAttributes(labels)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// labelsToAttributes converts labels to OTEL attributes.
func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordInvocation(ctx context.Context, labels map[string]string)  {}
func (t *noopTelemetry) RecordDenial(ctx context.Context, labels map[string]string)      {}
func (t *noopTelemetry) RecordAuthFailure(ctx context.Context, labels map[string]string) {}
func (t *noopTelemetry) RecordFailure(ctx context.Context, labels map[string]string)     {}
