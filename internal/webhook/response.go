package webhook

import "go.uber.org/zap"

// Result is a successful webhook outcome. Body is the decoded JSON tree, or
// the raw bytes when the response was not JSON.
type Result struct {
	StatusCode int
	Body       any
}

// Normalize classifies a response. Non-2xx statuses return a *FailureError
// carrying the raw body. A body that is not JSON is logged and passed through
// as []byte.
func Normalize(log *zap.Logger, status int, body []byte) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var decoded any
	tree, err := DecodeTree(body)
	if err != nil {
		log.Error("decode webhook response",
			zap.Error(err),
			zap.Int("status", status),
			zap.Int("body_bytes", len(body)),
		)
		decoded = body
	} else {
		decoded = tree
	}

	if status >= 200 && status <= 299 {
		return &Result{StatusCode: status, Body: decoded}, nil
	}
	return nil, &FailureError{StatusCode: status, RawBody: body}
}
