// Package apiclient is the JSON-over-HTTP transport shared by the vendor
// clients. It owns base URL joining, auth headers, per-host rate limiting, and
// mapping non-2xx responses to *services.HTTPError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dealflow/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Client issues JSON requests against one vendor API.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	limiter    *services.HostLimiter
	headers    http.Header
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLimiter shares a per-host rate limiter across clients.
func WithLimiter(limiter *services.HostLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(value) != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithBearerToken sets an Authorization bearer header.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if token = strings.TrimSpace(token); token != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// New constructs a client for service rooted at baseURL.
func New(service, baseURL string, opts ...Option) *Client {
	client := &Client{
		service:    service,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Service returns the vendor name used in error messages.
func (c *Client) Service() string {
	return c.service
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body (when non-nil) as JSON and decodes a 2xx response into out
// (when non-nil). Non-2xx responses return *services.HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s request: encode body: %w", c.service, err)
		}
		reader = bytes.NewReader(encoded)
	}

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return fmt.Errorf("%s request: rate limit wait: %w", c.service, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s request: new request: %w", c.service, err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return services.Wrap(services.ErrTimeout, c.service, method+" "+path, "request timed out", err)
		}
		return fmt.Errorf("%s request: http error: %w", c.service, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s request: read body: %w", c.service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &services.HTTPError{
			Service:    c.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s request: decode response: %w", c.service, err)
	}
	return nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
