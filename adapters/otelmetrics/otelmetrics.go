// Package otelmetrics implements telemetry.Recorder on top of the
// OpenTelemetry metrics SDK. This is the one place in SIGNIA that opens a
// network connection (the OTLP gRPC exporter), which is exactly why the
// core only depends on telemetry.Recorder's interface and never this
// package directly.
//
// Grounded on the teacher's core/pkg/observability/observability.go:
// resource.Merge feeding both a periodic-reader meter provider and a
// batching tracer provider, each wired to its own OTLP gRPC exporter. The
// metrics half narrows the RED metric set down to the two observations
// telemetry.Recorder actually declares (stage duration, a generic
// counter); the tracer half is exposed separately through Tracer/StartSpan
// for callers that want a span around a compile or verify run, since
// telemetry.Recorder itself has no span-shaped method to route one
// through.
package otelmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/telemetry"
)

// Config configures the OTLP gRPC exporters.
type Config struct {
	ServiceName  string
	Endpoint     string // e.g. "localhost:4317"
	Insecure     bool
	BatchTimeout time.Duration

	// SampleRate controls the tracer's sampling decision: 1.0 or more samples
	// every span, anything strictly between 0 and 1 a ratio-based sample.
	// Zero (the zero value) and negative values also sample every span,
	// matching the teacher's DefaultConfig of 1.0.
	SampleRate float64
}

// Recorder implements telemetry.Recorder against a live OTLP metrics
// pipeline, and additionally exposes a Tracer for callers that want spans
// around a compile or verify run. It exports exactly two metric
// instruments: a stage-duration histogram and a single events counter,
// with the caller-supplied Counter name carried as an "event" attribute
// rather than as a distinct instrument per name — the usual otel practice
// of one instrument, many attribute values.
type Recorder struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer
	durationHist   metric.Float64Histogram
	eventCounter   metric.Int64Counter
}

// New constructs a Recorder and starts its metric export pipeline.
// Shutdown must be called to flush pending metrics before process exit.
func New(ctx context.Context, cfg Config) (*Recorder, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "otelmetrics.resource.failed", "failed to build otel resource", err)
	}

	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "otelmetrics.exporter.failed", "failed to create otlp metric exporter", err)
	}
	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "otelmetrics.trace_exporter.failed", "failed to create otlp trace exporter", err)
	}

	interval := cfg.BatchTimeout
	if interval <= 0 {
		interval = 15 * time.Second
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval))),
	)

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate <= 0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter, sdktrace.WithBatchTimeout(interval)),
		sdktrace.WithSampler(sampler),
	)

	meter := meterProvider.Meter("signia.compile")
	tracer := tracerProvider.Tracer("signia.compile")
	durationHist, err := meter.Float64Histogram("signia.pipeline.stage.duration",
		metric.WithDescription("Duration of a single pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "otelmetrics.histogram.failed", "failed to create stage duration histogram", err)
	}
	eventCounter, err := meter.Int64Counter("signia.pipeline.events",
		metric.WithDescription("Count of named compile/verify events"),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "otelmetrics.counter.failed", "failed to create events counter", err)
	}

	return &Recorder{
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		meter:          meter,
		tracer:         tracer,
		durationHist:   durationHist,
		eventCounter:   eventCounter,
	}, nil
}

// NewOrNop calls New and, if construction fails (for example an
// unreachable collector), falls back to telemetry.NopRecorder rather than
// propagating the error: observability is additive, never load-bearing for
// compile or verify.
func NewOrNop(ctx context.Context, cfg Config) telemetry.Recorder {
	r, err := New(ctx, cfg)
	if err != nil {
		return telemetry.NopRecorder{}
	}
	return r
}

// StageDuration implements telemetry.Recorder.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	r.durationHist.Record(context.Background(), d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// Counter implements telemetry.Recorder by recording into the single
// signia.pipeline.events counter, carrying name as an "event" attribute
// alongside whatever labels the caller supplies.
func (r *Recorder) Counter(name string, delta int64, labels map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	attrs = append(attrs, attribute.String("event", name))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	r.eventCounter.Add(context.Background(), delta, metric.WithAttributes(attrs...))
}

// Tracer returns the tracer backing this Recorder's span export.
func (r *Recorder) Tracer() trace.Tracer {
	return r.tracer
}

// StartSpan starts a span under the given name, mirroring the teacher's
// Provider.StartSpan.
func (r *Recorder) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes and stops both export pipelines.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if err := r.tracerProvider.Shutdown(ctx); err != nil {
		return errs.Wrap(errs.KindInvariant, "otelmetrics.shutdown.failed", "failed to shut down tracer provider", err)
	}
	if err := r.meterProvider.Shutdown(ctx); err != nil {
		return errs.Wrap(errs.KindInvariant, "otelmetrics.shutdown.failed", "failed to shut down meter provider", err)
	}
	return nil
}
