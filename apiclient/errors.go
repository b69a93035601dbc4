package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

var (
	// ErrRateLimited is returned by a fail-fast RateLimit executor when no token is available.
	ErrRateLimited = errors.New("apiclient: rate limit exceeded")

	// ErrNilEndpoint is returned by Then when next yields neither an endpoint nor an error.
	ErrNilEndpoint = errors.New("apiclient: next returned a nil endpoint")
)

// InvalidURLError is returned when the base URL and path of a request cannot be
// resolved into an absolute URL. It is raised before anything is sent.
type InvalidURLError struct {
	// URL is the string that failed to resolve.
	URL string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apiclient: invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("apiclient: invalid url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

// NetworkError is returned when the server answers with a status code
// outside [200, 400). The body is preserved unchanged and never decoded.
type NetworkError struct {
	StatusCode int
	Body       []byte
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("apiclient: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError is returned by the built-in decoders when a payload does not
// match the expected response type.
type DecodeError struct {
	// Type is the response type the payload was decoded into.
	Type reflect.Type
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("apiclient: decode %v: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a request body could not be encoded.
// The failure is recorded by the builder and surfaced when the request is resolved.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("apiclient: encode body: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// MockedError is the synthetic failure produced by a registered hijack error entry.
type MockedError struct {
	Message string
}

func (e *MockedError) Error() string {
	return e.Message
}

// IsNetworkError reports whether err carries a non-OK HTTP status.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// StatusCode returns the HTTP status code carried by err, or 0 when err is not a NetworkError.
func StatusCode(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}
	return 0
}
