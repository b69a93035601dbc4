package apiclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error type classifications for the error.type attribute.
const (
	ErrorTypeTimeout           = "timeout"
	ErrorTypeConnectionRefused = "connection_refused"
	ErrorTypeDNSError          = "dns_error"
	ErrorTypeTLSError          = "tls_error"
	ErrorTypeCancelled         = "cancelled"
	ErrorTypeConnectionReset   = "connection_reset"
	ErrorTypeEOF               = "eof"
	ErrorTypeInvalidURL        = "invalid_url"
	ErrorTypeEncode            = "encode"
	ErrorTypeDecode            = "decode"
	ErrorTypeMocked            = "mocked"
	ErrorTypeRateLimited       = "rate_limited"
	ErrorTypeUnknown           = "unknown"
)

// classifyError returns an error.type classification for the given error.
//
// Pipeline errors are classified first; a *NetworkError yields its status
// code, per OTel semconv. Transport errors fall through to the network checks.
func classifyError(err error) string {
	if err == nil {
		return ""
	}

	var (
		netStatus  *NetworkError
		invalidURL *InvalidURLError
		encodeErr  *EncodeError
		decodeErr  *DecodeError
		mockedErr  *MockedError
	)
	switch {
	case errors.As(err, &netStatus):
		return strconv.Itoa(netStatus.StatusCode)
	case errors.As(err, &invalidURL):
		return ErrorTypeInvalidURL
	case errors.As(err, &encodeErr):
		return ErrorTypeEncode
	case errors.As(err, &decodeErr):
		return ErrorTypeDecode
	case errors.As(err, &mockedErr):
		return ErrorTypeMocked
	case errors.Is(err, ErrRateLimited):
		return ErrorTypeRateLimited
	}

	if errors.Is(err, context.Canceled) {
		return ErrorTypeCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorTypeDNSError
	}

	var tlsRecordErr *tls.RecordHeaderError
	if errors.As(err, &tlsRecordErr) {
		return ErrorTypeTLSError
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrorTypeTLSError
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorTypeConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return ErrorTypeConnectionReset
	}
	if errors.Is(err, io.EOF) {
		return ErrorTypeEOF
	}

	// Fallback for wrapped errors that lost their type.
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(errStr, "connection refused"):
		return ErrorTypeConnectionRefused
	case strings.Contains(errStr, "connection reset"):
		return ErrorTypeConnectionReset
	case strings.Contains(errStr, "no such host"):
		return ErrorTypeDNSError
	case strings.Contains(errStr, "x509") || strings.Contains(errStr, "certificate"):
		return ErrorTypeTLSError
	case strings.Contains(errStr, "eof"):
		return ErrorTypeEOF
	}

	return ErrorTypeUnknown
}

// errorTypeFromStatusCode returns error.type for HTTP status codes.
// Per OTel semconv, the status code itself is used as the error type for 4xx/5xx.
func errorTypeFromStatusCode(statusCode int) string {
	if statusCode >= 400 {
		return strconv.Itoa(statusCode)
	}
	return ""
}

// setSpanError records an error on the span with proper status and attributes.
func setSpanError(span trace.Span, err error, errorType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errorType != "" {
		span.SetAttributes(attribute.String("error.type", errorType))
	}
}
