package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mock         func() *MockExecutor
		want         post
		wantStatus   int
		wantRequests int
	}{
		{
			name: "given both calls succeed, then returns the second value",
			mock: func() *MockExecutor {
				return NewMockExecutor().
					StubPath("/users/1", http.StatusOK, `{"id":1,"name":"Jane"}`).
					StubPath("/posts/1", http.StatusOK, `{"id":1,"title":"first"}`)
			},
			want:         post{ID: 1, Title: "first"},
			wantRequests: 2,
		},
		{
			name: "given first call fails, then the second never starts",
			mock: func() *MockExecutor {
				return NewMockExecutor().
					StubPath("/users/1", http.StatusUnauthorized, `denied`).
					StubPath("/posts/1", http.StatusOK, `{"id":1}`)
			},
			wantStatus:   http.StatusUnauthorized,
			wantRequests: 1,
		},
		{
			name: "given second call fails, then returns its error",
			mock: func() *MockExecutor {
				return NewMockExecutor().
					StubPath("/users/1", http.StatusOK, `{"id":1}`).
					StubPath("/posts/1", http.StatusInternalServerError, ``)
			},
			wantStatus:   http.StatusInternalServerError,
			wantRequests: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := tt.mock()
			client := newMockClient(mock)

			got, err := Then(context.Background(), client, JSON[user](Get("/users/1")),
				func(u user) (*Endpoint[post], error) {
					return JSON[post](Get("/posts/" + strconv.Itoa(u.ID))), nil
				})

			assert.Equal(t, tt.wantRequests, mock.RequestCount())
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, StatusCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThen_NilNextEndpoint(t *testing.T) {
	t.Parallel()

	mock := NewMockExecutor().StubResponse(http.StatusOK, `{"id":1}`)
	client := newMockClient(mock)

	_, err := Then(context.Background(), client, JSON[user](Get("/users/1")),
		func(user) (*Endpoint[post], error) { return nil, nil })

	assert.ErrorIs(t, err, ErrNilEndpoint)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestFetchAll(t *testing.T) {
	t.Parallel()

	t.Run("given all calls succeed, then keeps endpoint order", func(t *testing.T) {
		t.Parallel()

		mock := NewMockExecutor().
			StubPath("/users/1", http.StatusOK, `{"id":1}`).
			StubPath("/users/2", http.StatusOK, `{"id":2}`).
			StubPath("/users/3", http.StatusOK, `{"id":3}`)
		client := newMockClient(mock)

		got, err := FetchAll(context.Background(), client, []*Endpoint[user]{
			JSON[user](Get("/users/3")),
			JSON[user](Get("/users/1")),
			JSON[user](Get("/users/2")),
		})

		require.NoError(t, err)
		assert.Equal(t, []user{{ID: 3}, {ID: 1}, {ID: 2}}, got)
	})

	t.Run("given one call fails, then returns its error", func(t *testing.T) {
		t.Parallel()

		mock := NewMockExecutor().
			StubPath("/users/1", http.StatusOK, `{"id":1}`).
			StubPath("/users/2", http.StatusNotFound, ``)
		client := newMockClient(mock)

		got, err := FetchAll(context.Background(), client, []*Endpoint[user]{
			JSON[user](Get("/users/1")),
			JSON[user](Get("/users/2")),
		})

		assert.Nil(t, got)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("given no endpoints, then returns an empty slice", func(t *testing.T) {
		t.Parallel()

		got, err := FetchAll[user](context.Background(), newMockClient(NewMockExecutor()), nil)

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
