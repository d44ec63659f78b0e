package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/omnichannel-engine"

// Metrics holds all application metrics
type Metrics struct {
	InquiriesQueued      metric.Int64Counter
	InquiriesRedirected  metric.Int64Counter
	RoutingDuration      metric.Float64Histogram
	BusinessHoursOpened  metric.Int64Counter
	BusinessHoursClosed  metric.Int64Counter
	CacheHitCount        metric.Int64Counter
	CacheMissCount       metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	inquiriesQueued, err := meter.Int64Counter(
		"livechat.inquiries.queued",
		metric.WithDescription("Number of inquiries admitted to the waiting queue"),
	)
	if err != nil {
		return nil, err
	}

	inquiriesRedirected, err := meter.Int64Counter(
		"livechat.inquiries.redirected",
		metric.WithDescription("Number of inquiries redirected to a fallback department"),
	)
	if err != nil {
		return nil, err
	}

	routingDuration, err := meter.Float64Histogram(
		"livechat.routing.duration",
		metric.WithDescription("Duration of one routing hook chain pass in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	businessHoursOpened, err := meter.Int64Counter(
		"livechat.business_hours.opened",
		metric.WithDescription("Number of business hours opened"),
	)
	if err != nil {
		return nil, err
	}

	businessHoursClosed, err := meter.Int64Counter(
		"livechat.business_hours.closed",
		metric.WithDescription("Number of business hours closed"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		InquiriesQueued:     inquiriesQueued,
		InquiriesRedirected: inquiriesRedirected,
		RoutingDuration:     routingDuration,
		BusinessHoursOpened: businessHoursOpened,
		BusinessHoursClosed: businessHoursClosed,
		CacheHitCount:       cacheHitCount,
		CacheMissCount:      cacheMissCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRoutingMetric records one routing pass
func RecordRoutingMetric(ctx context.Context, metrics *Metrics, department string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("livechat.department", department),
	}
	metrics.RoutingDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordBusinessHoursOpened counts business hours opened by a pass
func RecordBusinessHoursOpened(ctx context.Context, metrics *Metrics, count int) {
	if metrics == nil || count == 0 {
		return
	}
	metrics.BusinessHoursOpened.Add(ctx, int64(count))
}

// RecordBusinessHoursClosed counts business hours closed by a pass
func RecordBusinessHoursClosed(ctx context.Context, metrics *Metrics, count int) {
	if metrics == nil || count == 0 {
		return
	}
	metrics.BusinessHoursClosed.Add(ctx, int64(count))
}

// RecordInquiryQueued counts one waiting queue admission
func RecordInquiryQueued(ctx context.Context, metrics *Metrics, department string) {
	if metrics == nil {
		return
	}
	metrics.InquiriesQueued.Add(ctx, 1, metric.WithAttributes(attribute.String("livechat.department", department)))
}

// RecordInquiryRedirected counts one fallback department redirect
func RecordInquiryRedirected(ctx context.Context, metrics *Metrics, from, to string) {
	if metrics == nil {
		return
	}
	metrics.InquiriesRedirected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("livechat.department.from", from),
		attribute.String("livechat.department.to", to),
	))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.key", key)))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.key", key)))
}
