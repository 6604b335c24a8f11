// Package base provides the shared HTTP transport used by the wikia client.
package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// MaxConcurrentRequests limits parallel API calls
	MaxConcurrentRequests = 5

	// MaxResponseSize caps how much of a response body is read (10 MiB).
	MaxResponseSize = 10 << 20

	// DefaultUserAgent is sent when the caller supplies none.
	DefaultUserAgent = "wikia-mcp-server/1.0"
)

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// Client is a blocking GET transport with a concurrency cap. It performs
// exactly one HTTP exchange per call and never retries; the status code and
// body are handed back untouched for the caller to classify.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Semaphore  chan struct{}
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if d > 0 {
			client.HTTPClient = newHTTPClient(d)
		}
	}
}

// WithMaxConcurrent sets how many requests may be in flight at once.
func WithMaxConcurrent(n int) ClientOption {
	return func(client *Client) {
		if n > 0 {
			client.Semaphore = make(chan struct{}, n)
		}
	}
}

// NewClient creates a new transport with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		Semaphore:  make(chan struct{}, MaxConcurrentRequests),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AcquireSlot blocks until a request slot is available or context is canceled
func (c *Client) AcquireSlot(ctx context.Context) error {
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for request slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a request slot
func (c *Client) ReleaseSlot() {
	<-c.Semaphore
}

// Get issues a single GET to rawURL with params merged into its query
// string. It returns the HTTP status and the raw body.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, header http.Header) (int, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if err := c.AcquireSlot(ctx); err != nil {
		return 0, nil, err
	}
	defer c.ReleaseSlot()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Debug("HTTP request failed", "url", truncate(u.String(), 200), "error", err)
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readAndClose(resp)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableCompression:    false,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
