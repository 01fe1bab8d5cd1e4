package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error describes a failed processing request together with the request that
// was attempted, so operators can replay or diagnose it from logs.
type Error struct {
	URL    string
	Method string
	// Body is the JSON payload that was sent.
	Body string
	// StatusCode is zero when no response was received.
	StatusCode   int
	ResponseBody string
	Err          error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the request failed because its deadline expired.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
