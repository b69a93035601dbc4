package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newMockClient(mock *MockExecutor, opts ...Option) *Client {
	return New(append([]Option{
		WithBaseURL("https://api.example.com"),
		WithExecutor(mock),
	}, opts...)...)
}

func TestFetch_DecodesSuccessfulResponse(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubPath("/users/1", http.StatusOK, `{"id":1,"name":"Jane"}`)
	client := newMockClient(mock)

	got, err := Fetch(context.Background(), client, JSON[user](Get("/users/1")))

	require.NoError(t, err)
	assert.Equal(t, user{ID: 1, Name: "Jane"}, got)
	require.Equal(t, 1, mock.RequestCount())
	assert.Equal(t, "https://api.example.com/users/1", mock.LastRequest().URL.String())
	assert.Equal(t, http.MethodGet, mock.LastRequest().Method)
}

func TestFetch_EndpointBaseURLOverrideWinsEntirely(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, "")
	client := New(WithBaseURL("https://other.com"), WithExecutor(mock))

	_, err := Fetch(context.Background(), client, Empty(Get("/").BaseURL("https://example.com/x")))

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", mock.LastRequest().URL.String())
}

func TestFetch_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantErr    bool
		wantDecode bool
	}{
		{name: "given 200, then decodes", status: http.StatusOK, wantDecode: true},
		{name: "given 204, then decodes", status: http.StatusNoContent, wantDecode: true},
		{name: "given 302, then decodes", status: http.StatusFound, wantDecode: true},
		{name: "given 399, then decodes", status: 399, wantDecode: true},
		{name: "given 199, then fails without decoding", status: 199, wantErr: true},
		{name: "given 400, then fails without decoding", status: http.StatusBadRequest, wantErr: true},
		{name: "given 401, then fails without decoding", status: http.StatusUnauthorized, wantErr: true},
		{name: "given 500, then fails without decoding", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockExecutor().StubResponse(tt.status, `{"error":"denied"}`)
			client := newMockClient(mock)

			decoded := false
			e := NewEndpoint(Get("/secure"), func(body []byte) (string, error) {
				decoded = true
				return string(body), nil
			})

			got, err := Fetch(context.Background(), client, e)

			assert.Equal(t, tt.wantDecode, decoded)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, `{"error":"denied"}`, got)
				return
			}

			var netErr *NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.Equal(t, tt.status, netErr.StatusCode)
			assert.Equal(t, `{"error":"denied"}`, string(netErr.Body))
			assert.True(t, IsNetworkError(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("connection exploded")

	tests := []struct {
		name         string
		client       func(mock *MockExecutor) *Client
		endpoint     *Endpoint[user]
		stub         func(mock *MockExecutor)
		check        func(t *testing.T, err error)
		wantRequests int
	}{
		{
			name:     "given transport error, then passes it through unmodified",
			client:   func(m *MockExecutor) *Client { return newMockClient(m) },
			endpoint: JSON[user](Get("/users/1")),
			stub:     func(m *MockExecutor) { m.StubError(errBoom) },
			check: func(t *testing.T, err error) {
				assert.Same(t, errBoom, err)
			},
			wantRequests: 1,
		},
		{
			name:     "given malformed body, then fails with decode error",
			client:   func(m *MockExecutor) *Client { return newMockClient(m) },
			endpoint: JSON[user](Get("/users/1")),
			stub:     func(m *MockExecutor) { m.StubResponse(http.StatusOK, "<html>") },
			check: func(t *testing.T, err error) {
				var decErr *DecodeError
				assert.ErrorAs(t, err, &decErr)
			},
			wantRequests: 1,
		},
		{
			name:     "given no base URL, then fails before dispatch",
			client:   func(m *MockExecutor) *Client { return New(WithExecutor(m)) },
			endpoint: JSON[user](Get("/users/1")),
			stub:     func(m *MockExecutor) { m.StubResponse(http.StatusOK, "{}") },
			check: func(t *testing.T, err error) {
				var urlErr *InvalidURLError
				assert.ErrorAs(t, err, &urlErr)
			},
		},
		{
			name:     "given unencodable body, then fails before dispatch",
			client:   func(m *MockExecutor) *Client { return newMockClient(m) },
			endpoint: JSON[user](Post("/users").JSONBody(make(chan int))),
			stub:     func(m *MockExecutor) { m.StubResponse(http.StatusOK, "{}") },
			check: func(t *testing.T, err error) {
				var encErr *EncodeError
				assert.ErrorAs(t, err, &encErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockExecutor()
			tt.stub(mock)

			_, err := Fetch(context.Background(), tt.client(mock), tt.endpoint)

			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.wantRequests, mock.RequestCount())
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, `{}`)
	client := newMockClient(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, client, JSON[user](Get("/users/1")))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_CancellationReachesExecutor(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockExecutor().
		StubResponse(http.StatusOK, `{}`).
		OnRequest(func(reqCtx context.Context, _ *WireRequest) {
			cancel()
			<-reqCtx.Done()
		})
	client := newMockClient(mock)

	_, err := Fetch(ctx, client, JSON[user](Get("/users/1")))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_BaseURLPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		opts    []CallOption
		wantURL string
	}{
		{
			name:    "given no override, then uses client default",
			req:     Get("/a"),
			wantURL: "https://api.example.com/a",
		},
		{
			name:    "given endpoint override, then it wins over the client",
			req:     Get("/a").BaseURL("https://endpoint.example.com"),
			wantURL: "https://endpoint.example.com/a",
		},
		{
			name:    "given call override, then it wins over the endpoint",
			req:     Get("/a").BaseURL("https://endpoint.example.com"),
			opts:    []CallOption{WithBaseURLOverride("https://call.example.com/v2")},
			wantURL: "https://call.example.com/v2/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockExecutor().StubResponse(http.StatusOK, "")
			client := newMockClient(mock)

			_, err := Fetch(context.Background(), client, Empty(tt.req), tt.opts...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, mock.LastRequest().URL.String())
		})
	}
}

func TestFetch_HeaderAndQueryMerge(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, "")
	client := newMockClient(mock,
		WithDefaultHeader("Accept", "text/plain"),
		WithDefaultHeaders(map[string]string{"X-Client": "sdk"}),
	)

	e := Empty(Get("/search").Header("Accept", "application/json").AddQuery("q", "go"))
	_, err := Fetch(context.Background(), client, e,
		WithAdditionalHeaders(map[string]string{"X-Call": "1", "Accept": "*/*"}),
		WithAdditionalQuery(map[string]any{"page": 2, "q": "extra"}),
	)
	require.NoError(t, err)

	got := mock.LastRequest()
	assert.Equal(t, []string{"application/json", "text/plain", "*/*"}, got.Header.Values("Accept"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "sdk", got.Header.Get("X-Client"))
	assert.Equal(t, "1", got.Header.Get("X-Call"))
	assert.Equal(t, []string{"go", "extra"}, got.URL.Query()["q"])
	assert.Equal(t, "2", got.URL.Query().Get("page"))
}

func TestFetch_DefaultHeaderFollowsEndpointValue(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, "")
	client := newMockClient(mock, WithDefaultHeader("Content-Type", "text/plain"))

	_, err := Fetch(context.Background(), client, Empty(Post("/users").JSONBody(map[string]int{"id": 1})))
	require.NoError(t, err)

	got := mock.LastRequest().Header
	assert.Equal(t, []string{EncodingJSON.ContentType(), "text/plain"}, got.Values("Content-Type"))
	assert.Equal(t, EncodingJSON.ContentType(), got.Get("Content-Type"))
}

func TestFetch_RequestID(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, "")
	client := newMockClient(mock, WithRequestID(""))

	_, err := Fetch(context.Background(), client, Empty(Get("/")))
	require.NoError(t, err)
	_, err = Fetch(context.Background(), client, Empty(Get("/").Header("X-Request-ID", "fixed")))
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	_, parseErr := uuid.Parse(reqs[0].Header.Get("X-Request-ID"))
	assert.NoError(t, parseErr)
	assert.Equal(t, "fixed", reqs[1].Header.Get("X-Request-ID"))
}

func TestFetch_Hijack(t *testing.T) {
	t.Parallel()

	t.Run("given registered substitute, then the executor is never called", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterSubstitute(registry, user{ID: 9, Name: "Mock"}, Path(`/.+/\d`))
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"id":1,"name":"Real"}`)
		client := newMockClient(mock, WithHijacker(registry))

		got, err := Fetch(context.Background(), client, JSON[user](Get("/users/1")))

		require.NoError(t, err)
		assert.Equal(t, user{ID: 9, Name: "Mock"}, got)
		assert.Equal(t, 0, mock.RequestCount())
	})

	t.Run("given registered error, then it wins over the network", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterError[user](registry, "mocked outage", Any())
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"id":1}`)
		client := newMockClient(mock, WithHijacker(registry))

		_, err := Fetch(context.Background(), client, JSON[user](Get("/users/1")))

		var mocked *MockedError
		require.ErrorAs(t, err, &mocked)
		assert.Equal(t, "mocked outage", mocked.Message)
		assert.Equal(t, 0, mock.RequestCount())
	})

	t.Run("given non-matching path, then the network is used", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterSubstitute(registry, user{Name: "Mock"}, Path(`/.+/\d`))
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"id":1,"name":"Real"}`)
		client := newMockClient(mock, WithHijacker(registry))

		got, err := Fetch(context.Background(), client, JSON[user](Get("/users")))

		require.NoError(t, err)
		assert.Equal(t, "Real", got.Name)
		assert.Equal(t, 1, mock.RequestCount())
	})

	t.Run("given substitute for another type, then the network is used", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterSubstitute(registry, userA{Name: "Mock"}, Any())
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"Name":"Real"}`)
		client := newMockClient(mock, WithHijacker(registry))

		got, err := Fetch(context.Background(), client, JSON[userB](Get("/users/1")))

		require.NoError(t, err)
		assert.Equal(t, "Real", got.Name)
		assert.Equal(t, 1, mock.RequestCount())
	})

	t.Run("given cleared registry, then the network is used", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterSubstitute(registry, user{Name: "Mock"}, Any())
		registry.Clear()
		registry.Clear()
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"name":"Real"}`)
		client := newMockClient(mock, WithHijacker(registry))

		got, err := Fetch(context.Background(), client, JSON[user](Get("/users/1")))

		require.NoError(t, err)
		assert.Equal(t, "Real", got.Name)
	})

	t.Run("given Map endpoint, then hijack uses the mapped type", func(t *testing.T) {
		t.Parallel()

		registry := NewRegistry()
		RegisterSubstitute(registry, "mapped", Any())
		mock := NewMockExecutor().StubResponse(http.StatusOK, `{"name":"Real"}`)
		client := newMockClient(mock, WithHijacker(registry))

		e := Map(JSON[user](Get("/users/1")), func(u user) (string, error) { return u.Name, nil })
		got, err := Fetch(context.Background(), client, e)

		require.NoError(t, err)
		assert.Equal(t, "mapped", got)
		assert.Equal(t, 0, mock.RequestCount())
	})
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	client := New(WithBaseURL("https://api.example.com"))

	assert.Equal(t, "https://api.example.com", client.BaseURL())
	assert.Nil(t, client.Hijacker())

	exec, ok := client.Executor().(*HTTPExecutor)
	require.True(t, ok)
	assert.Equal(t, DefaultConfig().Timeout, exec.Client().Timeout)
	assert.IsType(t, &otelTransport{}, exec.Client().Transport)
}

func TestNew_WithHTTPClient(t *testing.T) {
	t.Parallel()

	hc := &http.Client{Timeout: 42}
	client := New(WithHTTPClient(hc))

	exec, ok := client.Executor().(*HTTPExecutor)
	require.True(t, ok)
	assert.NotSame(t, hc, exec.Client())
	assert.Equal(t, hc.Timeout, exec.Client().Timeout)
	assert.Nil(t, hc.Transport, "the caller's client must not be modified")
}

func TestNew_WithConfig(t *testing.T) {
	t.Parallel()

	client := New(WithConfig(LowLatencyConfig()))

	exec, ok := client.Executor().(*HTTPExecutor)
	require.True(t, ok)
	assert.Equal(t, LowLatencyConfig().Timeout, exec.Client().Timeout)
}
