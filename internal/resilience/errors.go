package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error the retry executor may try again (429, 5xx,
// transport failures). Anything else is terminal on first sight.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// HTTPError carries a non-2xx response from an upstream provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusError builds the error for a non-2xx provider response,
// classified for the retry executor: 429 and 5xx come back wrapped as
// transient, other client errors come back bare so they fail fast.
func HTTPStatusError(statusCode int, body string) error {
	herr := &HTTPError{StatusCode: statusCode, Body: strings.TrimSpace(body)}
	if IsTransientHTTPStatus(statusCode) {
		return NewTransientError(herr, statusCode)
	}
	return herr
}

// connErrnos are the socket-level failures worth another attempt.
var connErrnos = []error{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	syscall.ECONNABORTED,
}

// transientPhrases catches transport failures that reach us only as
// stringly-wrapped errors from HTTP client internals.
var transientPhrases = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"transport connection broken",
}

// IsTransient reports whether err is worth retrying: an explicit
// TransientError anywhere in the chain, a network timeout, a connection-level
// errno, or a message matching a known transport-failure phrase.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range connErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status is safe to retry:
// request timeout, rate limiting, or a server-side failure.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429:
		return true
	default:
		return statusCode >= 500 && statusCode <= 599
	}
}
