package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMethod is returned when an action's method is not GET, POST or PUT.
	// No request is sent.
	ErrUnsupportedMethod = errors.New("unsupported webhook method")

	// ErrMissingURL is returned when the configuration has no url.
	ErrMissingURL = errors.New("webhook url is required")
)

// FailureError is returned for responses outside the 2xx range. RawBody is the
// response body exactly as received.
type FailureError struct {
	StatusCode int
	RawBody    []byte
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.RawBody)
}
