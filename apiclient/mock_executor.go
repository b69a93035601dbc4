package apiclient

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"slices"
	"sync"
)

// MockExecutor is a configurable Executor for tests.
// It stubs responses by path, path pattern, method or predicate and records
// every request it receives.
//
//	mock := apiclient.NewMockExecutor().
//	    StubPath("/users/1", http.StatusOK, `{"name":"Jane"}`).
//	    StubMethod(http.MethodDelete, http.StatusNoContent, "")
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com"),
//	    apiclient.WithExecutor(mock),
//	)
type MockExecutor struct {
	mu          sync.RWMutex
	stubs       []mockStub
	defaultResp *WireResponse
	defaultErr  error
	requests    []*WireRequest
	requestHook func(context.Context, *WireRequest)
}

type mockStub struct {
	matcher  func(*WireRequest) bool
	response *WireResponse
	err      error
}

// NewMockExecutor creates an empty MockExecutor.
// Without stubs every call fails.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// StubResponse makes every unmatched request return the given response.
func (m *MockExecutor) StubResponse(statusCode int, body string) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = newMockResponse(statusCode, body)
	return m
}

// StubError makes every unmatched request fail with err.
func (m *MockExecutor) StubError(err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubPath stubs requests whose URL path equals path.
func (m *MockExecutor) StubPath(path string, statusCode int, body string) *MockExecutor {
	return m.StubFunc(func(req *WireRequest) bool {
		return req.URL.Path == path
	}, statusCode, body)
}

// StubPathRegex stubs requests whose URL path matches pattern.
// It panics if pattern does not compile.
func (m *MockExecutor) StubPathRegex(pattern string, statusCode int, body string) *MockExecutor {
	re := regexp.MustCompile(pattern)
	return m.StubFunc(func(req *WireRequest) bool {
		return re.MatchString(req.URL.Path)
	}, statusCode, body)
}

// StubMethod stubs requests with the given method.
func (m *MockExecutor) StubMethod(method string, statusCode int, body string) *MockExecutor {
	return m.StubFunc(func(req *WireRequest) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubFunc stubs requests matching the predicate. Stubs are checked in
// registration order and the first match wins.
func (m *MockExecutor) StubFunc(
	matcher func(*WireRequest) bool,
	statusCode int,
	body string,
) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher:  matcher,
		response: newMockResponse(statusCode, body),
	})
	return m
}

// StubFuncError makes requests matching the predicate fail with err.
func (m *MockExecutor) StubFuncError(matcher func(*WireRequest) bool, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher: matcher,
		err:     err,
	})
	return m
}

// OnRequest sets a hook called for each request before a stub is picked.
// The hook may block, for example to simulate a slow server.
func (m *MockExecutor) OnRequest(fn func(ctx context.Context, req *WireRequest)) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// Execute implements Executor.
func (m *MockExecutor) Execute(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req.Clone())
	hook := m.requestHook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stubs {
		if s.matcher(req) {
			if s.err != nil {
				return nil, s.err
			}
			return cloneWireResponse(s.response), nil
		}
	}

	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		return cloneWireResponse(m.defaultResp), nil
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
}

// Requests returns copies of all requests received.
func (m *MockExecutor) Requests() []*WireRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.requests)
}

// RequestCount returns the number of requests received.
func (m *MockExecutor) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockExecutor) LastRequest() *WireRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears all recorded requests and stubs.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.defaultResp = nil
	m.defaultErr = nil
	m.requestHook = nil
}

func newMockResponse(statusCode int, body string) *WireResponse {
	return &WireResponse{
		StatusCode: statusCode,
		Header:     make(http.Header),
		Body:       []byte(body),
	}
}

func cloneWireResponse(resp *WireResponse) *WireResponse {
	return &WireResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       slices.Clone(resp.Body),
	}
}
