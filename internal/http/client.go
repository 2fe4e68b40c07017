package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when no other User-Agent is configured.
const DefaultUserAgent = "radar"

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4096

// Client wraps HTTP operations against the storage, payment and
// registry services.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - JSON request and response helpers
//   - Typed errors for non-2xx responses
//
// Example usage:
//
//	client := NewClient(WithTimeout(30 * time.Second))
//
//	// Decode a JSON response
//	var price struct{ Winc string `json:"winc"` }
//	err := client.GetJSON(ctx, "https://payment.ardrive.io/v1/price/bytes/1024", nil, &price)
//
//	// Post raw bytes
//	body, err := client.PostBytes(ctx, uploadURL, signedItem, Header{"Content-Type": "application/octet-stream"})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 60 second timeout
//   - "radar" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Header holds extra request headers.
type Header map[string]string

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError if the response status is not 2xx.
//
// Example:
//
//	data, err := client.Get(ctx, "https://arweave.net/wallet/addr/balance", nil)
func (c *Client) Get(ctx context.Context, url string, header Header) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, url, nil, header)
}

// GetString performs a GET request and returns the response body as a string.
//
// This is a convenience wrapper around Get for plain-text endpoints.
func (c *Client) GetString(ctx context.Context, url string, header Header) (string, error) {
	body, err := c.Get(ctx, url, header)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON performs a GET request and decodes the JSON response into v.
//
// Returns a *DecodeError if the body is not valid JSON for v.
func (c *Client) GetJSON(ctx context.Context, url string, header Header, v any) error {
	body, err := c.Get(ctx, url, header)
	if err != nil {
		return err
	}
	return decode(url, body, v)
}

// PostBytes posts a raw body and returns the response body.
func (c *Client) PostBytes(ctx context.Context, url string, body []byte, header Header) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, url, body, header)
}

// PostJSON encodes in as JSON, posts it, and decodes the response into
// out. out may be nil when the response body is not needed.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	body, err := c.Do(ctx, http.MethodPost, url, payload, Header{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(url, body, out)
}

// Do sends a request and returns the body of a 2xx response.
//
// The request includes the configured User-Agent header. Any other
// status is returned as a *StatusError carrying the status line and the
// start of the response body.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, header Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}

	return io.ReadAll(resp.Body)
}

func decode(url string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	return nil
}
