package apiclient

import (
	"context"
	"sync"
)

// Result is the single outcome emitted by a Stream.
type Result[T any] struct {
	Value T
	Err   error
}

// Stream is a single-value asynchronous result started by Publish.
//
// Results emits exactly one Result and is then closed. After Cancel, the
// channel is closed without emitting.
type Stream[T any] struct {
	results chan Result[T]
	cancel  context.CancelFunc
	stop    chan struct{}
	once    sync.Once
}

// Publish starts e on a new goroutine and exposes its outcome as a Stream.
//
// The call starts immediately. The outcome is held until it is received from
// Results or the stream is cancelled.
//
//	s := apiclient.Publish(ctx, client, getUser)
//	defer s.Cancel()
//
//	for res := range s.Results() {
//	    if res.Err != nil {
//	        return res.Err
//	    }
//	    render(res.Value)
//	}
func Publish[T any](ctx context.Context, c *Client, e *Endpoint[T], opts ...CallOption) *Stream[T] {
	return startStream(ctx, func(ctx context.Context) (T, error) {
		return execute(ctx, c, e, opts...)
	})
}

func startStream[T any](ctx context.Context, run func(context.Context) (T, error)) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		results: make(chan Result[T]),
		cancel:  cancel,
		stop:    make(chan struct{}),
	}

	go func() {
		defer close(s.results)
		defer cancel()

		v, err := run(ctx)

		// A cancelled stream must not emit, even when the outcome and the
		// cancellation race.
		select {
		case <-s.stop:
			return
		default:
		}
		select {
		case s.results <- Result[T]{Value: v, Err: err}:
		case <-s.stop:
		}
	}()

	return s
}

// Results returns the channel carrying the outcome.
func (s *Stream[T]) Results() <-chan Result[T] {
	return s.results
}

// Cancel aborts the call and closes Results without emitting.
// It is safe to call Cancel more than once and after completion.
func (s *Stream[T]) Cancel() {
	s.once.Do(func() {
		close(s.stop)
		s.cancel()
	})
}

// Await receives the outcome, or ctx.Err() if ctx is done first.
// It returns context.Canceled when the stream was cancelled.
//
// Giving up on ctx cancels the stream, so the call is aborted and nothing is
// left waiting for a receiver.
func (s *Stream[T]) Await(ctx context.Context) (T, error) {
	var zero T
	select {
	case res, ok := <-s.results:
		if !ok {
			return zero, context.Canceled
		}
		return res.Value, res.Err
	case <-ctx.Done():
		s.Cancel()
		return zero, ctx.Err()
	}
}

// ThenStream chains two calls in the stream style: next builds the second
// endpoint from the first value. A failure of either step is emitted and
// stops the chain; cancelling the stream stops whichever call is running.
func ThenStream[A, B any](
	ctx context.Context,
	c *Client,
	first *Endpoint[A],
	next func(A) (*Endpoint[B], error),
	opts ...CallOption,
) *Stream[B] {
	return startStream(ctx, func(ctx context.Context) (B, error) {
		return Then(ctx, c, first, next, opts...)
	})
}
