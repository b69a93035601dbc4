package apiclient

import (
	"maps"
	"net"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/endpoint-go/apiclient"
)

// =============================================================================
// Config - Executor Configuration
// =============================================================================

// Config holds the settings of the HTTPExecutor built by New.
// Use DefaultConfig() to get a properly initialized configuration,
// then modify specific fields as needed.
//
// Config is ignored when a custom executor or *http.Client is supplied.
//
// Example:
//
//	cfg := apiclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com"),
//	    apiclient.WithConfig(cfg),
//	)
type Config struct {
	// Timeout specifies a time limit for the entire round trip, including
	// reading the response body. A Timeout of zero means no timeout.
	//
	// Default: 15s
	Timeout time.Duration

	// DialTimeout is the maximum time to wait for a TCP connection.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive specifies the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers after
	// the request is written. Zero means only Timeout applies.
	//
	// Default: 0
	ResponseHeaderTimeout time.Duration

	// IdleConnTimeout is how long an idle keep-alive connection is kept.
	//
	// Default: 90s
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a balanced configuration suitable for most APIs.
func DefaultConfig() Config {
	return Config{
		Timeout:               15 * time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 0, // Uses overall Timeout
		IdleConnTimeout:       90 * time.Second,
	}
}

// LowLatencyConfig returns a configuration that fails fast on slow backends.
//
// Best for:
//   - User-facing request paths
//   - Calls with a tight overall deadline
func LowLatencyConfig() Config {
	return Config{
		Timeout:               5 * time.Second,
		DialTimeout:           2 * time.Second,
		KeepAlive:             15 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		IdleConnTimeout:       60 * time.Second,
	}
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig holds all client configuration.
type internalConfig struct {
	httpConfig Config

	// baseURL is the default base URL of every request.
	baseURL string

	// executor replaces the default HTTPExecutor when set.
	executor Executor

	// httpClient is wrapped by the default HTTPExecutor when set.
	httpClient *http.Client

	// hijacker is consulted before every network call when set.
	hijacker Hijacker

	// defaultHeaders are added to every request after the endpoint headers.
	defaultHeaders http.Header

	// requestIDHeader, when set, receives a generated UUID unless already present.
	requestIDHeader string

	rateLimit *RateLimitConfig

	// === OpenTelemetry Configuration ===

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *metrics

	// ServiceName is added as "http.client.name" on spans and metrics.
	ServiceName string

	// === Debug ===

	debug        bool
	generateCurl bool
	logger       zerolog.Logger
}

// newConfig creates a new internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		logger:         zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Initialize metrics (ignore errors, will just be nil if fails)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// buildTransport creates an http.Transport from the configuration.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		IdleConnTimeout:       hc.IdleConnTimeout,
		TLSHandshakeTimeout:   hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout: hc.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// buildExecutor returns the configured executor, decorated with rate limiting.
func (cfg *internalConfig) buildExecutor() Executor {
	exec := cfg.executor
	if exec == nil {
		var hc http.Client
		if cfg.httpClient != nil {
			hc = *cfg.httpClient
		} else {
			hc = http.Client{
				Transport: cfg.buildTransport(),
				Timeout:   cfg.httpConfig.Timeout,
			}
		}
		hc.Transport = newOtelTransport(hc.Transport, cfg)
		exec = NewHTTPExecutor(&hc)
	}

	if cfg.rateLimit != nil {
		exec = RateLimit(exec, *cfg.rateLimit)
	}
	return exec
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options - Functional Options for Client Configuration
// =============================================================================

// Option configures the Client.
type Option func(*internalConfig)

// WithBaseURL sets the default base URL of every request.
// Requests may override it with Request.BaseURL or WithBaseURLOverride.
func WithBaseURL(baseURL string) Option {
	return func(cfg *internalConfig) {
		cfg.baseURL = baseURL
	}
}

// WithExecutor replaces the default HTTPExecutor.
//
// The executor owns every transport concern, so Config and WithHTTPClient
// are ignored when it is set.
//
//	mock := apiclient.NewMockExecutor()
//	client := apiclient.New(apiclient.WithExecutor(mock))
func WithExecutor(exec Executor) Option {
	return func(cfg *internalConfig) {
		cfg.executor = exec
	}
}

// WithHTTPClient makes the default HTTPExecutor use a copy of hc.
// The copy's transport is wrapped with OpenTelemetry instrumentation.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *internalConfig) {
		cfg.httpClient = hc
	}
}

// WithConfig sets the configuration of the default HTTPExecutor.
// Use DefaultConfig() or LowLatencyConfig() as a starting point.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithHijacker installs a hijacker consulted before every network call.
//
//	registry := apiclient.NewRegistry()
//	apiclient.RegisterSubstitute(registry, User{Name: "Jane"}, apiclient.Any())
//
//	client := apiclient.New(apiclient.WithHijacker(registry))
func WithHijacker(h Hijacker) Option {
	return func(cfg *internalConfig) {
		cfg.hijacker = h
	}
}

// WithDefaultHeader adds a header to every request.
//
// The value is added after any endpoint value of the same name, so both are
// sent and Header.Get still returns the endpoint's. Multi-valued headers such
// as Accept merge; single-valued ones like Content-Type should be set in one
// place only.
func WithDefaultHeader(name, value string) Option {
	return func(cfg *internalConfig) {
		if cfg.defaultHeaders == nil {
			cfg.defaultHeaders = make(http.Header)
		}
		cfg.defaultHeaders.Add(name, value)
	}
}

// WithDefaultHeaders adds several headers to every request, merged the same
// way as WithDefaultHeader.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(cfg *internalConfig) {
		if cfg.defaultHeaders == nil {
			cfg.defaultHeaders = make(http.Header, len(headers))
		}
		for k, v := range headers {
			cfg.defaultHeaders.Add(k, v)
		}
	}
}

// WithRequestID sets a generated UUID on the given header of every request
// that does not already carry one. An empty name uses "X-Request-ID".
func WithRequestID(header string) Option {
	return func(cfg *internalConfig) {
		if header == "" {
			header = "X-Request-ID"
		}
		cfg.requestIDHeader = header
	}
}

// WithRateLimit throttles the executor with a token bucket.
// See RateLimit for the wait and fail-fast behaviors.
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.rateLimit = &rl
	}
}

// WithServiceName sets an identifier for this client in traces and metrics.
// This value is added as the "http.client.name" attribute.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// If not called, the global provider from otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// =============================================================================
// Call Options
// =============================================================================

// CallOption adjusts a single call without changing the endpoint.
type CallOption func(*callConfig)

type callConfig struct {
	baseURL string
	header  http.Header
	query   []queryItem
}

type queryItem struct {
	name  string
	value any
}

func newCallConfig(opts []CallOption) *callConfig {
	cc := &callConfig{}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// WithBaseURLOverride resolves this call against baseURL, taking precedence
// over both the endpoint's override and the client's default.
func WithBaseURLOverride(baseURL string) CallOption {
	return func(cc *callConfig) {
		cc.baseURL = baseURL
	}
}

// WithAdditionalHeaders adds headers to this call only. Values are added after
// the endpoint's and the client's, as with WithDefaultHeader.
func WithAdditionalHeaders(headers map[string]string) CallOption {
	return func(cc *callConfig) {
		if cc.header == nil {
			cc.header = make(http.Header, len(headers))
		}
		for k, v := range headers {
			cc.header.Add(k, v)
		}
	}
}

// WithAdditionalQuery appends query items to this call only.
func WithAdditionalQuery(params map[string]any) CallOption {
	return func(cc *callConfig) {
		for _, k := range slices.Sorted(maps.Keys(params)) {
			cc.query = append(cc.query, queryItem{name: k, value: params[k]})
		}
	}
}
