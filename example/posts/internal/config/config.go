package config

const (
	// API configuration
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultTimeout = 10 // seconds

	// Rate limiting towards the public API
	RequestsPerSecond = 5
	Burst             = 2

	// Server configuration
	MetricsPort = ":2112"

	// OpenTelemetry configuration
	OTLPEndpoint   = "localhost:4317"
	ServiceName    = "endpoint-go-posts-example"
	ServiceVersion = "0.1.0"

	// Debug log rotation
	DebugLogMaxSizeMB  = 10
	DebugLogMaxBackups = 3
)
