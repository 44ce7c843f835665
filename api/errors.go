package api

import (
	"errors"
	"net/http"
)

// ErrAuthRequired means no usable credential is present or the server
// rejected the one that was sent.
var ErrAuthRequired = errors.New("login required")

// TransientError is any network failure or non-success response other than
// an authorization failure. Retrying may succeed.
type TransientError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return "request failed"
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable fetch failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
