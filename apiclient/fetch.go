package apiclient

import "context"

// Fetch executes e and returns the decoded value.
//
// Fetch blocks only while the executor runs; cancelling ctx cancels the
// executor call and Fetch then returns ctx.Err().
//
//	user, err := apiclient.Fetch(ctx, client, getUser)
//	if apiclient.StatusCode(err) == http.StatusNotFound {
//	    ...
//	}
func Fetch[T any](ctx context.Context, c *Client, e *Endpoint[T], opts ...CallOption) (T, error) {
	return execute(ctx, c, e, opts...)
}
