package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/models"
)

// Client talks to the remote ordering API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	creds     *helpers.CredentialManager
	client    *http.Client
	transport http.RoundTripper
	timeout   time.Duration
	validate  *validator.Validate
	log       *slog.Logger
}

type Option func(*Client)

// WithTransport sets the innermost round tripper. The auth and request id
// layers are always stacked on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout bounds every request. Zero leaves it to the transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, creds *helpers.CredentialManager, opts ...Option) *Client {
	if creds == nil {
		creds = helpers.NewCredentialManager(nil)
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		creds:    creds,
		validate: models.NewValidator(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{
		Timeout:   c.timeout,
		Transport: middleware.RequestID(middleware.Authentication(creds, c.transport)),
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Credentials() *helpers.CredentialManager { return c.creds }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return &TransientError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuthRequired, readMessage(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &TransientError{StatusCode: resp.StatusCode, Message: readMessage(resp)}
	case resp.StatusCode == http.StatusNoContent || out == nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	if err := c.check(out); err != nil {
		return &TransientError{StatusCode: resp.StatusCode, Message: "invalid response: " + err.Error(), Err: err}
	}
	return nil
}

// check validates a decoded response body, element by element for slices.
func (c *Client) check(out any) error {
	v := reflect.Indirect(reflect.ValueOf(out))
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := c.check(v.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

// readMessage extracts a human readable message from an error response:
// the "detail" field when the body is JSON, the raw body otherwise, and the
// status text as a last resort.
func readMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	body := strings.TrimSpace(string(raw))
	if body != "" {
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err == nil {
			switch detail := payload["detail"].(type) {
			case string:
				if detail != "" {
					return detail
				}
			case nil:
				if msg, ok := payload["error"].(string); ok && msg != "" {
					return msg
				}
			default:
				if b, err := json.Marshal(detail); err == nil {
					return string(b)
				}
			}
		}
		return body
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
