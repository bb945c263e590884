// Package httpx is the shared HTTP plumbing for provider adapters: request
// construction with fixed headers, typed status errors and bounded retries.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"freight-quote-service/internal/platform/schema"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Client wraps an http.Client with per-provider headers.
// Retries default to zero: provider failures go to the caller's fallback path.
type Client struct {
	session *http.Client
	header  http.Header
	retries int
	backoff time.Duration
}

type Option func(*Client)

func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		session: &http.Client{Timeout: timeout},
		header:  http.Header{},
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) NewRequest(
	ctx context.Context,
	method string,
	url string,
	body []byte,
) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.header {
		req.Header[k] = v
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// Do sends the request built by makeReq, retrying transient failures
// (network errors, 429 and 5xx) with exponential backoff up to the
// configured retry count.
func (c *Client) Do(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	maxAttempts := c.retries + 1
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// Retryable reports whether err is a throttling, server or network failure.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// ReadBody reads a response body up to the package limit and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// DoJSON sends the request, validates the body against v (when non-nil) and
// decodes it into out.
func (c *Client) DoJSON(
	ctx context.Context,
	makeReq func() (*http.Request, error),
	v *schema.Validator,
	out any,
) error {
	resp, err := c.Do(ctx, makeReq)
	if err != nil {
		return err
	}

	b, err := ReadBody(resp)
	if err != nil {
		return err
	}

	return v.Decode(b, out)
}
