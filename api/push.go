package api

import (
	"fmt"
	"net/url"
)

const DefaultPushPath = "/ws/orders"

// PushURL derives the push channel endpoint from the API base URL. The
// scheme is switched to its websocket counterpart and the API path is
// replaced by path.
func PushURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}
	if path == "" {
		path = DefaultPushPath
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}).String(), nil
}

// PushURL returns the push endpoint for this client's base URL.
func (c *Client) PushURL(path string) (string, error) {
	return PushURL(c.baseURL, path)
}
