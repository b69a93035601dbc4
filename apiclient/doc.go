// Package apiclient provides typed HTTP endpoints: a request description
// paired with the decoder of its response, executed by an instrumented
// client that can be short-circuited by registered substitutes.
//
// # Features
//
//   - Immutable request builder with JSON and form bodies
//   - Generic endpoints with JSON, envelope, map and raw decoders
//   - Direct, callback and single-value stream delivery over one pipeline
//   - Request chaining and concurrent fan-out
//   - Hijacking: canned values, errors and fixture files instead of the network
//   - OpenTelemetry tracing and metrics, zerolog debug output
//
// # Quick Start
//
//	type User struct {
//	    ID   int    `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com/v1"),
//	    apiclient.WithServiceName("my-service"),
//	)
//
//	getUser := apiclient.JSON[User](apiclient.Get("/users/1"))
//	user, err := apiclient.Fetch(ctx, client, getUser)
//
// # Status Classification
//
// Responses with a status in [200, 400) are decoded. Every other status fails
// with a *NetworkError carrying the status code and the raw body; the decoder
// is not called.
//
//	_, err := apiclient.Fetch(ctx, client, getUser)
//	var netErr *apiclient.NetworkError
//	if errors.As(err, &netErr) && netErr.StatusCode == http.StatusUnauthorized {
//	    ...
//	}
//
// # Delivery Styles
//
//	// Direct
//	user, err := apiclient.Fetch(ctx, client, getUser)
//
//	// Callback, on its own goroutine
//	task := apiclient.FetchAsync(ctx, client, getUser, onUser, onError)
//
//	// Single-value stream
//	stream := apiclient.Publish(ctx, client, getUser)
//	res := <-stream.Results()
//
// # Hijacking
//
// A Registry answers calls before they reach the executor. Entries are keyed
// by the endpoint's response type and a MatchCriteria:
//
//	registry := apiclient.NewRegistry()
//	apiclient.RegisterSubstitute(registry, User{ID: 1, Name: "Jane"}, apiclient.Path(`^/users/\d+$`))
//	apiclient.RegisterError[[]Post](registry, "posts unavailable", apiclient.MethodIs(apiclient.MethodGet))
//	apiclient.RegisterFromFile[Profile](registry, apiclient.Any(), apiclient.DirLoader("testdata"), "profile.yaml")
//
//	client := apiclient.New(apiclient.WithHijacker(registry))
//
// # Testing
//
// MockExecutor stubs responses without a server:
//
//	mock := apiclient.NewMockExecutor().StubPath("/users/1", http.StatusOK, `{"id":1}`)
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com"),
//	    apiclient.WithExecutor(mock),
//	)
package apiclient
