package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ValidationDetail is one entry of a structured 422 response body.
type ValidationDetail struct {
	Location string
	Message  string
	Type     string
}

// StatusError reports a non-2xx response from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
	Details    []ValidationDetail
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			if d.Location != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", d.Location, d.Message))
			} else {
				parts = append(parts, d.Message)
			}
		}
		return fmt.Sprintf("%s: %d %s (%s)", e.Op, e.StatusCode, msg, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, msg)
}

// StatusCodeOf extracts the HTTP status code from err, or 0 when err does
// not wrap a StatusError.
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCodeOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 response, meaning the stored
// credential must be treated as invalid.
func IsUnauthorized(err error) bool {
	return StatusCodeOf(err) == http.StatusUnauthorized
}

// IsValidation reports whether err is a 422 response. Validation failures
// indicate malformed request content and must not be retried as-is.
func IsValidation(err error) bool {
	return StatusCodeOf(err) == http.StatusUnprocessableEntity
}

// IsTimeout reports whether err represents an exceeded request deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectivity reports whether err represents a failure to reach the
// service at all, as opposed to a response it chose to send.
func IsConnectivity(err error) bool {
	if err == nil || IsTimeout(err) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
