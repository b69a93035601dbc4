package apiclient

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Then executes first, builds the second endpoint from its value and executes
// it. The second call starts only after the first value is decoded; any
// failure stops the chain and is returned as-is. A nil endpoint from next
// fails with ErrNilEndpoint. opts apply to both calls.
//
//	order, err := apiclient.Then(ctx, client, getCart,
//	    func(cart Cart) (*apiclient.Endpoint[Order], error) {
//	        return apiclient.JSON[Order](apiclient.Post("/orders").JSONBody(cart)), nil
//	    })
func Then[A, B any](
	ctx context.Context,
	c *Client,
	first *Endpoint[A],
	next func(A) (*Endpoint[B], error),
	opts ...CallOption,
) (B, error) {
	var zero B

	a, err := execute(ctx, c, first, opts...)
	if err != nil {
		return zero, err
	}

	second, err := next(a)
	if err != nil {
		return zero, err
	}
	if second == nil {
		return zero, ErrNilEndpoint
	}

	return execute(ctx, c, second, opts...)
}

// FetchAll executes endpoints concurrently and returns their values in the
// same order. The first failure cancels the remaining calls and is returned.
//
//	users, err := apiclient.FetchAll(ctx, client, []*apiclient.Endpoint[User]{
//	    getUser(1), getUser(2), getUser(3),
//	})
func FetchAll[T any](ctx context.Context, c *Client, endpoints []*Endpoint[T], opts ...CallOption) ([]T, error) {
	values := make([]T, len(endpoints))

	g, ctx := errgroup.WithContext(ctx)
	for i, e := range endpoints {
		g.Go(func() error {
			v, err := execute(ctx, c, e, opts...)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}
