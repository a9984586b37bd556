package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	UserAgent = "JobDigest/1.0 (+local)"

	// maxBody caps what one response may hand to a decoder.
	maxBody = 16 << 20
)

// Client is the HTTP client every source adapter shares: one user agent,
// per-host rate limiting, and status codes >= 400 turned into errors.
type Client struct {
	hc      *http.Client
	limiter *HostLimiter
}

func NewClient(timeout time.Duration, limiter *HostLimiter) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}, limiter: limiter}
}

// StatusError is returned for responses with a status code >= 400.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

// Get returns the body of u.
func (c *Client) Get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml, text/xml;q=0.9, */*;q=0.8")
	return c.do(req)
}

// PostJSON sends body as JSON to u and decodes the JSON reply into v.
func (c *Client) PostJSON(ctx context.Context, u string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", u, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	b, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	u := req.URL.String()
	req.Header.Set("User-Agent", UserAgent)

	if err := c.limiter.WaitURL(req.Context(), u); err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, u, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, &StatusError{Method: req.Method, URL: u, Code: res.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return b, nil
}

// GetJSON decodes the JSON body of u into v.
func (c *Client) GetJSON(ctx context.Context, u string, v any) error {
	b, err := c.Get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}
