package apiclient

// Client executes endpoints against a base URL.
//
// A Client holds no per-call state: its configuration is fixed by New and it
// is safe for concurrent use. Calls are made with the package functions
// Fetch, FetchAsync and Publish, which share one pipeline:
//
//	build -> hijack -> execute -> classify -> decode -> deliver
//
// Example:
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com/v1"),
//	    apiclient.WithServiceName("billing"),
//	)
//
//	invoice, err := apiclient.Fetch(ctx, client, apiclient.JSON[Invoice](apiclient.Get("/invoices/42")))
type Client struct {
	cfg      *internalConfig
	executor Executor
}

// New creates a Client with the given options.
//
// Without WithExecutor, requests go through an HTTPExecutor built from
// DefaultConfig (or WithConfig / WithHTTPClient) and instrumented with
// OpenTelemetry.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)
	return &Client{
		cfg:      cfg,
		executor: cfg.buildExecutor(),
	}
}

// BaseURL returns the default base URL.
func (c *Client) BaseURL() string {
	return c.cfg.baseURL
}

// Executor returns the executor requests are sent through.
func (c *Client) Executor() Executor {
	return c.executor
}

// Hijacker returns the configured hijacker, or nil.
func (c *Client) Hijacker() Hijacker {
	return c.cfg.hijacker
}
