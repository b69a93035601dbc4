package apiclient

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface check.
var _ http.RoundTripper = (*otelTransport)(nil)

// otelTransport wraps an http.RoundTripper with OpenTelemetry instrumentation.
// It backs the HTTPExecutor built by New; each round trip becomes a child span
// of the endpoint call span.
type otelTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	propagator propagation.TextMapPropagator
}

func newOtelTransport(base http.RoundTripper, cfg *internalConfig) *otelTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &otelTransport{
		base: base,
		cfg:  cfg,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
}

// RoundTrip implements http.RoundTripper with tracing and metrics.
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, span := t.cfg.Tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req)...),
	)
	defer span.End()

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ctx)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	baseAttrs := t.cfg.baseAttributes()
	t.cfg.Metrics.recordActiveRequestStart(ctx, baseAttrs)
	defer t.cfg.Metrics.recordActiveRequestEnd(ctx, baseAttrs)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		errorType := classifyError(err)
		setSpanError(span, err, errorType)
		t.cfg.Metrics.recordRoundTripDuration(ctx, duration, append(t.metricsAttributes(req),
			attribute.String("error.type", errorType)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		span.SetAttributes(attribute.String("error.type", errorTypeFromStatusCode(resp.StatusCode)))
	}

	if resp.ContentLength > 0 {
		t.cfg.Metrics.recordResponseBodySize(ctx, resp.ContentLength, baseAttrs)
	}

	attrs := append(t.metricsAttributes(req), attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		attrs = append(attrs, attribute.String("error.type", errorTypeFromStatusCode(resp.StatusCode)))
	}
	t.cfg.Metrics.recordRoundTripDuration(ctx, duration, attrs)

	return resp, nil
}

// requestAttributes returns span attributes for the request.
func (t *otelTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := t.metricsAttributes(req)
	if req.URL != nil {
		attrs = append(attrs,
			attribute.String("url.full", req.URL.String()),
			attribute.String("url.scheme", req.URL.Scheme),
		)
	}
	if req.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", req.ContentLength))
	}
	return attrs
}

// metricsAttributes returns the low-cardinality attributes shared by spans and metrics.
func (t *otelTransport) metricsAttributes(req *http.Request) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL == nil {
		return attrs
	}
	if host := req.URL.Hostname(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	if port := serverPort(req.URL.Scheme, req.URL.Port()); port > 0 {
		attrs = append(attrs, attribute.Int("server.port", port))
	}
	return attrs
}

// serverPort returns the explicit port, or the scheme's default one.
func serverPort(scheme, port string) int {
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return 0
		}
		return p
	}
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}
