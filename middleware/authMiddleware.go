package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Credentials is the token source used by Authentication.
type Credentials interface {
	Token() (string, bool)
	Invalidate()
}

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Authentication attaches the bearer token, when one is present, and drops
// the credential as soon as the server answers 401.
func Authentication(creds Credentials, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if token, ok := creds.Token(); ok && r.Header.Get("Authorization") == "" {
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := next.RoundTrip(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			slog.Warn("credential rejected by server, invalidating", "method", r.Method, "path", r.URL.Path)
			creds.Invalidate()
		}
		return resp, nil
	})
}

const RequestIDHeader = "X-Request-ID"

// RequestID tags every outgoing request with a fresh id unless the caller
// already set one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) == "" {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return next.RoundTrip(r)
	})
}
