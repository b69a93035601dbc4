package apiclient

import (
	"fmt"
	"reflect"
	"slices"
)

// Void is the response type of endpoints whose body is ignored.
type Void struct{}

// DecodeFunc turns a response body into a typed value.
//
// A DecodeFunc must not mutate shared state; it may be called concurrently.
type DecodeFunc[T any] func(body []byte) (T, error)

// Endpoint pairs a Request with the decoder of its response.
//
// The response type T is also the key used by the hijack Registry: two
// endpoints with distinct named types never share a substitute, even when the
// types have the same fields.
//
//	var getUser = apiclient.JSON[User](apiclient.Get("/users/1"))
//
//	user, err := apiclient.Fetch(ctx, client, getUser)
type Endpoint[T any] struct {
	request Request
	decode  DecodeFunc[T]
}

// NewEndpoint creates an Endpoint from a request and a decode function.
func NewEndpoint[T any](req Request, decode DecodeFunc[T]) *Endpoint[T] {
	return &Endpoint[T]{request: req, decode: decode}
}

// JSON creates an endpoint decoding a JSON body into T.
//
// Date fields typed Time use DefaultTimeLayout unless WithTimeLayout is given.
// Malformed payloads fail with a *DecodeError.
func JSON[T any](req Request, opts ...DecoderOption) *Endpoint[T] {
	d := NewDecoder(opts...)
	return NewEndpoint(req, func(body []byte) (T, error) {
		return decodeJSON[T](d, body)
	})
}

// JSONAt creates an endpoint that decodes only the sub-document at path,
// a gjson path such as "data" or "result.items".
//
// Use it when the value of interest is wrapped in an envelope:
//
//	// {"meta": {...}, "data": {"name": "Jane"}}
//	ep := apiclient.JSONAt[User](apiclient.Get("/me"), "data")
func JSONAt[T any](req Request, path string, opts ...DecoderOption) *Endpoint[T] {
	d := NewDecoder(opts...)
	return NewEndpoint(req, func(body []byte) (T, error) {
		return decodeJSONAt[T](d, body, path)
	})
}

// Empty creates an endpoint that ignores the response body.
func Empty(req Request) *Endpoint[Void] {
	return NewEndpoint(req, func([]byte) (Void, error) {
		return Void{}, nil
	})
}

// Dictionary creates an endpoint decoding a JSON object into a generic map.
// A payload whose root is not an object fails with a *DecodeError.
func Dictionary(req Request) *Endpoint[map[string]any] {
	return NewEndpoint(req, decodeDictionary)
}

// Raw creates an endpoint returning the body bytes unchanged.
func Raw(req Request) *Endpoint[[]byte] {
	return NewEndpoint(req, func(body []byte) ([]byte, error) {
		return slices.Clone(body), nil
	})
}

// Request returns the request description.
func (e *Endpoint[T]) Request() Request {
	return e.request
}

// Decode runs the endpoint's decoder on body.
func (e *Endpoint[T]) Decode(body []byte) (T, error) {
	return e.decode(body)
}

// ResponseType returns the runtime identity of T.
func (e *Endpoint[T]) ResponseType() reflect.Type {
	return reflect.TypeFor[T]()
}

// ModifyRequest replaces the endpoint's request with f(current).
//
// Requests that were already resolved are not affected. ModifyRequest must
// not race with in-flight calls using the same endpoint.
//
//	ep.ModifyRequest(func(r apiclient.Request) apiclient.Request {
//	    return r.Header("Authorization", "Bearer "+token)
//	})
func (e *Endpoint[T]) ModifyRequest(f func(Request) Request) {
	e.request = f(e.request)
}

func (e *Endpoint[T]) String() string {
	return fmt.Sprintf("%s expecting: %v", e.request, e.ResponseType())
}

// Map derives an endpoint with the same request whose decoder applies f to
// the decoded value. When decoding fails, f is not called.
//
//	type page struct{ Items []Post }
//	posts := apiclient.Map(apiclient.JSON[page](apiclient.Get("/posts")),
//	    func(p page) ([]Post, error) { return p.Items, nil })
func Map[T, N any](e *Endpoint[T], f func(T) (N, error)) *Endpoint[N] {
	decode := e.decode
	return NewEndpoint(e.request, func(body []byte) (N, error) {
		v, err := decode(body)
		if err != nil {
			var zero N
			return zero, err
		}
		return f(v)
	})
}
