// ABOUTME: Error types for the query API client.
// ABOUTME: Distinguishes HTTP-level, stream-level, and truncation failures.

package twin

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned when the stream body ends before a done
// or error event was seen. The response may or may not have arrived.
var ErrStreamClosed = errors.New("stream closed without completion")

// APIError is a non-2xx response from either query endpoint. Detail is
// the server's "detail" field when the body carried one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// StreamErrorSeverity marks every server-signaled stream error; the
// wire protocol defines no other level.
const StreamErrorSeverity = "error"

// StreamError is a server-signaled error event on the query stream.
// Receiving one aborts the read.
type StreamError struct {
	Message  string
	Severity string
}

func newStreamError(message string) *StreamError {
	return &StreamError{Message: message, Severity: StreamErrorSeverity}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %s", e.Message)
}
