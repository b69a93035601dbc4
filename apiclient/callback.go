package apiclient

import (
	"context"
	"sync"
)

// Task is a call started by FetchAsync.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	settled bool
}

// FetchAsync executes e on a new goroutine and reports the outcome to exactly
// one of onSuccess or onFail, called on that goroutine.
//
// Cancelling the task before the outcome is known suppresses both callbacks.
// Cancelling ctx instead reports ctx.Err() to onFail.
//
//	task := apiclient.FetchAsync(ctx, client, getUser,
//	    func(u User) { render(u) },
//	    func(err error) { log.Error().Err(err).Msg("load user") },
//	)
//	defer task.Cancel()
func FetchAsync[T any](
	ctx context.Context,
	c *Client,
	e *Endpoint[T],
	onSuccess func(T),
	onFail func(error),
	opts ...CallOption,
) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()

		v, err := execute(ctx, c, e, opts...)
		if !t.deliverable() {
			return
		}
		if err != nil {
			if onFail != nil {
				onFail(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(v)
		}
	}()

	return t
}

// deliverable reports whether the outcome may still be delivered and, if so,
// makes later Cancel calls no-ops for delivery.
func (t *Task) deliverable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.settled {
		return false
	}
	t.settled = true
	return true
}

// Cancel aborts the call. No callback runs after Cancel returns unless one
// had already started.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.settled = true
	t.mu.Unlock()
	t.cancel()
}

// Wait blocks until the call has finished and its callback, if any, returned.
func (t *Task) Wait() {
	<-t.done
}

// Done returns a channel closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
