package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExecutor_Stubs(t *testing.T) {
	errStub := errors.New("stubbed failure")

	mock := NewMockExecutor().
		StubPath("/exact", http.StatusOK, "exact").
		StubPathRegex(`^/items/\d+$`, http.StatusOK, "item").
		StubMethod(http.MethodDelete, http.StatusNoContent, "").
		StubFuncError(func(req *WireRequest) bool { return req.Header.Get("X-Fail") != "" }, errStub).
		StubResponse(http.StatusTeapot, "default")

	tests := []struct {
		name       string
		req        *WireRequest
		wantStatus int
		wantBody   string
		wantErr    error
	}{
		{
			name:       "given exact path, then returns its stub",
			req:        &WireRequest{Method: http.MethodGet, URL: mustParseURL(t, "https://h/exact")},
			wantStatus: http.StatusOK,
			wantBody:   "exact",
		},
		{
			name:       "given path matching regex, then returns its stub",
			req:        &WireRequest{Method: http.MethodGet, URL: mustParseURL(t, "https://h/items/12")},
			wantStatus: http.StatusOK,
			wantBody:   "item",
		},
		{
			name:       "given method stub, then matches any path",
			req:        &WireRequest{Method: http.MethodDelete, URL: mustParseURL(t, "https://h/other")},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "given predicate error stub, then returns the error",
			req: &WireRequest{
				Method: http.MethodGet,
				URL:    mustParseURL(t, "https://h/other"),
				Header: http.Header{"X-Fail": {"1"}},
			},
			wantErr: errStub,
		},
		{
			name:       "given no matching stub, then returns the default",
			req:        &WireRequest{Method: http.MethodGet, URL: mustParseURL(t, "https://h/other")},
			wantStatus: http.StatusTeapot,
			wantBody:   "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := mock.Execute(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(resp.Body))
		})
	}
}

func TestMockExecutor_NoStub(t *testing.T) {
	_, err := NewMockExecutor().Execute(context.Background(), testWireRequest())

	assert.ErrorContains(t, err, "no stub found for request: GET https://api.example.com/")
}

func TestMockExecutor_RecordsRequests(t *testing.T) {
	mock := NewMockExecutor().StubResponse(http.StatusOK, "")
	req := testWireRequest()

	_, err := mock.Execute(context.Background(), req)
	require.NoError(t, err)
	req.Header.Set("X-Later", "mutated")

	require.Equal(t, 1, mock.RequestCount())
	assert.Empty(t, mock.LastRequest().Header.Get("X-Later"))

	mock.Reset()
	assert.Zero(t, mock.RequestCount())
	assert.Nil(t, mock.LastRequest())
	_, err = mock.Execute(context.Background(), req)
	assert.Error(t, err)
}

func TestMockExecutor_ResponsesAreCopies(t *testing.T) {
	mock := NewMockExecutor().StubResponse(http.StatusOK, "body")

	first, err := mock.Execute(context.Background(), testWireRequest())
	require.NoError(t, err)
	first.Body[0] = 'B'

	second, err := mock.Execute(context.Background(), testWireRequest())
	require.NoError(t, err)
	assert.Equal(t, "body", string(second.Body))
}
