package apiclient

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// isOK reports whether a status code counts as success.
// Redirects that reach the client unresolved are successes too.
func isOK(statusCode int) bool {
	return statusCode >= 200 && statusCode < 400
}

// execute runs one call through the pipeline. Every delivery style is a thin
// adapter over it.
func execute[T any](ctx context.Context, c *Client, e *Endpoint[T], opts ...CallOption) (value T, err error) {
	start := time.Now()
	req := e.Request()
	name := req.String()
	attrs := c.callAttributes(req.Method(), e.ResponseType())

	ctx, span := c.cfg.Tracer.Start(ctx, "apiclient "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithAttributes(attribute.String("url.path", req.Path())),
	)
	defer span.End()

	defer func() {
		duration := time.Since(start)
		c.cfg.Metrics.recordRequestDuration(ctx, duration, attrs)
		if err != nil {
			errorType := classifyError(err)
			setSpanError(span, err, errorType)
			c.cfg.Metrics.recordError(ctx, errorType, attrs)
			c.cfg.logFailure(name, err, duration)
		}
	}()

	wire, err := c.build(req, newCallConfig(opts))
	if err != nil {
		return value, err
	}

	if h := c.cfg.hijacker; h != nil {
		if res, ok := h.Hijack(e.ResponseType(), req); ok {
			span.SetAttributes(attribute.Bool("apiclient.hijacked", true))
			c.cfg.Metrics.recordHijackHit(ctx, attrs)
			c.cfg.logHijack(name, res)
			return hijackedValue[T](res)
		}
	}
	span.SetAttributes(attribute.Bool("apiclient.hijacked", false))
	c.cfg.logRequest(name, wire)

	resp, err := c.executor.Execute(ctx, wire)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return value, ctxErr
		}
		return value, err
	}
	c.cfg.logResponse(name, resp, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !isOK(resp.StatusCode) {
		return value, &NetworkError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return e.Decode(resp.Body)
}

// build resolves req and merges the client defaults and call options into it.
//
// Base URL precedence: call option, then the request's override, then the
// client default. Added header values follow the endpoint's and never replace them.
func (c *Client) build(req Request, cc *callConfig) (*WireRequest, error) {
	if cc.baseURL != "" {
		req = req.BaseURL(cc.baseURL)
	}

	wire, err := req.Resolve(c.cfg.baseURL)
	if err != nil {
		return nil, err
	}

	if len(cc.query) > 0 {
		q := wire.URL.Query()
		for _, item := range cc.query {
			for _, v := range formatQueryValue(item.value) {
				q.Add(item.name, v)
			}
		}
		wire.URL.RawQuery = q.Encode()
	}

	for _, extra := range []map[string][]string{c.cfg.defaultHeaders, cc.header} {
		for name, values := range extra {
			for _, v := range values {
				wire.Header.Add(name, v)
			}
		}
	}

	if h := c.cfg.requestIDHeader; h != "" && wire.Header.Get(h) == "" {
		wire.Header.Set(h, uuid.NewString())
	}

	return wire, nil
}

// callAttributes returns the low-cardinality attributes of an endpoint call.
func (c *Client) callAttributes(method Method, responseType reflect.Type) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, c.cfg.baseAttributes()...)
	attrs = append(attrs,
		attribute.String("http.request.method", string(method)),
		attribute.String("apiclient.response.type", responseType.String()),
	)
	return attrs
}
