package apiclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for endpoint calls and HTTP round trips.
type metrics struct {
	// === Endpoint Call Metrics ===

	// requestDuration measures a whole call, from build to decode, in seconds.
	requestDuration metric.Float64Histogram

	// requestErrors counts failed calls by error type.
	requestErrors metric.Int64Counter

	// hijackHits counts calls answered by the hijacker without a network call.
	hijackHits metric.Int64Counter

	// === Transport Metrics ===

	// roundTripDuration measures a single HTTP round trip in seconds.
	roundTripDuration metric.Float64Histogram

	// activeRequests tracks the number of in-flight round trips.
	activeRequests metric.Int64UpDownCounter

	// responseBodySize measures the size of response bodies in bytes.
	responseBodySize metric.Int64Histogram
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"apiclient.request.duration",
		metric.WithDescription("Duration of endpoint calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"apiclient.request.error",
		metric.WithDescription("Number of failed endpoint calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.hijackHits, err = meter.Int64Counter(
		"apiclient.hijack.hits",
		metric.WithDescription("Number of endpoint calls answered by the hijacker"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Round trip duration with OTel semconv recommended buckets
	m.roundTripDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("Number of active HTTP client requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.responseBodySize, err = meter.Int64Histogram(
		"http.client.response.body.size",
		metric.WithDescription("Size of HTTP client response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(
			0, 100, 1024, 10*1024, 100*1024, 1024*1024, 10*1024*1024,
		),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordRequestDuration records the duration of an endpoint call.
func (m *metrics) recordRequestDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// recordError records a failed endpoint call.
func (m *metrics) recordError(ctx context.Context, errorType string, attrs []attribute.KeyValue) {
	if m == nil || m.requestErrors == nil {
		return
	}
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)
	allAttrs = append(allAttrs, attribute.String("error.type", errorType))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}

// recordHijackHit records a call answered by the hijacker.
func (m *metrics) recordHijackHit(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.hijackHits == nil {
		return
	}
	m.hijackHits.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordRoundTripDuration records the duration of an HTTP round trip.
func (m *metrics) recordRoundTripDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.roundTripDuration == nil {
		return
	}
	m.roundTripDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// recordActiveRequestStart records a round trip starting.
func (m *metrics) recordActiveRequestStart(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordActiveRequestEnd records a round trip completing.
func (m *metrics) recordActiveRequestEnd(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))
}

// recordResponseBodySize records the size of a response body.
func (m *metrics) recordResponseBodySize(
	ctx context.Context,
	size int64,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.responseBodySize == nil {
		return
	}
	m.responseBodySize.Record(ctx, size, metric.WithAttributes(attrs...))
}
