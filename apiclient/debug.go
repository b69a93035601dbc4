package apiclient

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileConfig configures the rotating file used by WithDebugLogFile.
type LogFileConfig struct {
	// Filename is the file to write to. Backups use the same directory.
	Filename string

	// MaxSizeMB is the size in megabytes that triggers a rotation.
	// Default: 100
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep. Zero keeps all.
	MaxBackups int

	// MaxAgeDays is the number of days to keep rotated files. Zero keeps all.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// WithDebug enables debug logging of requests, hijack outcomes and responses.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.debug = enabled
	}
}

// WithLogger sets the zerolog logger used for debug output.
// Default: a logger writing JSON to stdout with timestamps.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.logger = logger
	}
}

// WithDebugLogFile enables debug logging into a size-rotated file.
//
//	client := apiclient.New(
//	    apiclient.WithDebugLogFile(apiclient.LogFileConfig{
//	        Filename:   "/var/log/myapp/apiclient.log",
//	        MaxSizeMB:  50,
//	        MaxBackups: 3,
//	    }),
//	)
func WithDebugLogFile(lf LogFileConfig) Option {
	return func(cfg *internalConfig) {
		w := &lumberjack.Logger{
			Filename:   lf.Filename,
			MaxSize:    lf.MaxSizeMB,
			MaxBackups: lf.MaxBackups,
			MaxAge:     lf.MaxAgeDays,
			Compress:   lf.Compress,
		}
		cfg.logger = zerolog.New(w).With().Timestamp().Logger()
		cfg.debug = true
	}
}

// WithGenerateCurl adds the equivalent cURL command to debug request logs.
func WithGenerateCurl(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.generateCurl = enabled
	}
}

// generateCurlCommand creates a cURL command equivalent for the given request.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/users' -H 'Content-Type: application/json; charset=UTF-8' -d '{"name":"John"}'
func generateCurlCommand(req *WireRequest) string {
	parts := []string{"curl"}

	if req.Method != string(MethodGet) {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, shellQuote(req.URL.String()))

	// Headers sorted for consistent output
	for _, k := range slices.Sorted(maps.Keys(req.Header)) {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", shellQuote(k+": "+v))
		}
	}

	if len(req.Body) > 0 {
		parts = append(parts, "-d", shellQuote(string(req.Body)))
	}

	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// logRequest logs the resolved request.
func (cfg *internalConfig) logRequest(endpoint string, req *WireRequest) {
	if !cfg.debug {
		return
	}
	ev := cfg.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("body_size", len(req.Body))
	if cfg.generateCurl {
		ev = ev.Str("curl", generateCurlCommand(req))
	}
	ev.Msg("apiclient request")
}

// logHijack logs a call answered by the hijacker.
func (cfg *internalConfig) logHijack(endpoint string, res HijackResult) {
	if !cfg.debug {
		return
	}
	ev := cfg.logger.Debug().Str("endpoint", endpoint)
	if res.Err != nil {
		ev = ev.AnErr("hijack_error", res.Err)
	} else {
		ev = ev.Str("substitute_type", fmt.Sprintf("%T", res.Value))
	}
	ev.Msg("apiclient request hijacked")
}

// logResponse logs the raw response.
func (cfg *internalConfig) logResponse(endpoint string, resp *WireResponse, duration time.Duration) {
	if !cfg.debug {
		return
	}
	cfg.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration_ms", duration).
		Int("content_length", len(resp.Body)).
		Msg("apiclient response")
}

// logFailure logs a failed call.
func (cfg *internalConfig) logFailure(endpoint string, err error, duration time.Duration) {
	if !cfg.debug {
		return
	}
	cfg.logger.Debug().
		Str("endpoint", endpoint).
		Err(err).
		Dur("duration_ms", duration).
		Msg("apiclient request failed")
}
