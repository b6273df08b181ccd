package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const upstreamMeterName = "github.com/ukair/dataselector/internal/telemetry"

// UpstreamMetrics records calls to external data sources: the UK-AIR
// query endpoints and the local authority registry. All methods are
// nil-safe so callers can run without telemetry wired.
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewUpstreamMetrics creates the upstream-call instruments.
func NewUpstreamMetrics() (*UpstreamMetrics, error) {
	meter := otel.Meter(upstreamMeterName)

	requestDuration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of upstream requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"upstream.request.total",
		metric.WithDescription("Total number of upstream requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"catalog.cache.hit",
		metric.WithDescription("Local authority catalog cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"catalog.cache.miss",
		metric.WithDescription("Local authority catalog cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}, nil
}

// RecordRequest records one upstream call. Metrics use a background
// context so a cancelled request still gets counted.
func (m *UpstreamMetrics) RecordRequest(source, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("upstream.source", source),
		attribute.String("upstream.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit counts a catalog read served from the cache.
func (m *UpstreamMetrics) RecordCacheHit(source string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("upstream.source", source)))
}

// RecordCacheMiss counts a catalog read that required a fetch.
func (m *UpstreamMetrics) RecordCacheMiss(source string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("upstream.source", source)))
}
