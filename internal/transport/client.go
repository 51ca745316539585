// Package transport is the HTTP plumbing shared by the supplier and
// storefront collaborators: authentication, JSON requests and the mapping of
// failed responses onto the error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// userAgent identifies storesync to remote APIs.
const userAgent = "storesync"

// Client provides HTTP client functionality with authentication.
type Client struct {
	service string
	baseURL string
	http    *http.Client
	auth    Authenticator
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the credential passed to the authenticator.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
	}
}

// New creates a transport client for service rooted at baseURL.
func New(service, baseURL string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the service name used in errors.
func (c *Client) Service() string {
	return c.service
}

// URL resolves path against the base URL. An absolute URL is returned as is.
func (c *Client) URL(path string, query url.Values) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs an HTTP request with authentication applied. Failures below
// HTTP are returned as transient errors unless ctx ended.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	// Set common headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewTransientError(req.Method+" "+req.URL.Path, err)
	}
	return resp, nil
}

// JSON sends body (when non-nil) as JSON and decodes a successful response
// into target (when non-nil). It returns the response headers so callers can
// follow pagination links.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body, target any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return nil, &errors.ValidationError{Field: "url", Value: path, Message: err.Error()}
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := DecodeResponse(c.service, resp, target); err != nil {
		return resp.Header, err
	}
	return resp.Header, nil
}
