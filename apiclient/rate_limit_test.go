package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWireRequest() *WireRequest {
	return &WireRequest{
		Method: http.MethodGet,
		URL:    &url.URL{Scheme: "https", Host: "api.example.com", Path: "/"},
		Header: make(http.Header),
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cfg          RateLimitConfig
		timeout      time.Duration
		calls        int
		wantErrAt    int
		wantErr      error
		wantRequests int
	}{
		{
			name:         "given fail-fast and exhausted burst, then returns ErrRateLimited",
			cfg:          RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2},
			calls:        3,
			wantErrAt:    2,
			wantErr:      ErrRateLimited,
			wantRequests: 2,
		},
		{
			name:         "given wait mode and a deadline too close for a token, then returns ErrRateLimited",
			cfg:          RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, WaitOnLimit: true},
			timeout:      50 * time.Millisecond,
			calls:        2,
			wantErrAt:    1,
			wantErr:      ErrRateLimited,
			wantRequests: 1,
		},
		{
			name:         "given zero burst, then allows one request",
			cfg:          RateLimitConfig{RequestsPerSecond: 0.001},
			calls:        2,
			wantErrAt:    1,
			wantErr:      ErrRateLimited,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockExecutor().StubResponse(http.StatusOK, "")
			exec := RateLimit(mock, tt.cfg)

			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}

			for i := range tt.calls {
				_, err := exec.Execute(ctx, testWireRequest())
				if i == tt.wantErrAt {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					require.NoError(t, err)
				}
			}
			assert.Equal(t, tt.wantRequests, mock.RequestCount())
		})
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor()

	assert.Same(t, mock, RateLimit(mock, RateLimitConfig{}))
}

func TestRateLimit_WaitPassesContextErrors(t *testing.T) {
	t.Parallel()

	exec := RateLimit(NewMockExecutor().StubResponse(http.StatusOK, ""), DefaultRateLimitConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, testWireRequest())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRateLimit_HijackDoesNotConsumeTokens(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	RegisterSubstitute(registry, user{ID: 1}, Path(`^/cached$`))

	mock := NewMockExecutor().StubResponse(http.StatusOK, `{"id":2}`)
	client := newMockClient(mock,
		WithHijacker(registry),
		WithRateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}),
	)

	for range 3 {
		_, err := Fetch(context.Background(), client, JSON[user](Get("/cached")))
		require.NoError(t, err)
	}

	got, err := Fetch(context.Background(), client, JSON[user](Get("/live")))
	require.NoError(t, err)
	assert.Equal(t, 2, got.ID)

	_, err = Fetch(context.Background(), client, JSON[user](Get("/live")))
	assert.ErrorIs(t, err, ErrRateLimited)
}
