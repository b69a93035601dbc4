package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
)

// Compile-time interface checks.
var (
	_ Executor = (*HTTPExecutor)(nil)
	_ Executor = ExecutorFunc(nil)
)

// Executor performs a resolved request and returns the raw response.
//
// Execute is the only blocking step of a call. Implementations must honour
// ctx cancellation and must not retry on their own; a transport failure is
// returned as-is and reaches the caller unmodified.
type Executor interface {
	Execute(ctx context.Context, req *WireRequest) (*WireResponse, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req *WireRequest) (*WireResponse, error)

// Execute calls f(ctx, req).
func (f ExecutorFunc) Execute(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	return f(ctx, req)
}

// WireRequest is a fully resolved request ready for transport.
type WireRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// HTTPRequest converts the request into an *http.Request bound to ctx.
func (w *WireRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(w.Body) > 0 {
		body = bytes.NewReader(w.Body)
	}

	req, err := http.NewRequestWithContext(ctx, w.Method, w.URL.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = w.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return req, nil
}

// Clone returns a deep copy of the request.
func (w *WireRequest) Clone() *WireRequest {
	c := &WireRequest{
		Method: w.Method,
		Header: w.Header.Clone(),
		Body:   slices.Clone(w.Body),
	}
	if w.URL != nil {
		u := *w.URL
		if w.URL.User != nil {
			user := *w.URL.User
			u.User = &user
		}
		c.URL = &u
	}
	return c
}

// WireResponse is the raw outcome of an executed request.
type WireResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPExecutor executes requests with an *http.Client and reads the whole
// response body before returning.
type HTTPExecutor struct {
	client *http.Client
}

// NewHTTPExecutor creates an executor over client, or http.DefaultClient when client is nil.
func NewHTTPExecutor(client *http.Client) *HTTPExecutor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExecutor{client: client}
}

// Client returns the underlying *http.Client.
func (e *HTTPExecutor) Client() *http.Client {
	return e.client
}

// Execute sends req and returns the response with its body fully read.
func (e *HTTPExecutor) Execute(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WireResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
