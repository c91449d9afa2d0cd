// CLAUDE:SUMMARY HTTP client for the Cin7 Core (DEAR) external API v2 — header auth, JSON in/out, retry with backoff on 429/5xx and network errors.

// Package cin7 talks to the Cin7 Core (DEAR) inventory REST API.
package cin7

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the DEAR external API v2 root.
const DefaultBaseURL = "https://inventory.dearsystems.com/ExternalApi/v2/"

const maxRetries = 3

// ErrNotFound marks lookups where the API answered but the entity does
// not exist (empty list body, or the API's 400-with-Exception shape).
var ErrNotFound = errors.New("not found")

// APIError is a non-retryable upstream failure: the API answered with a
// status the caller cannot fix by waiting.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error: %d %s", e.Op, e.Status, truncate(e.Body, 200))
}

// Client is a thin caller for the Cin7 Core API. Auth rides in two
// headers per request; there is no session state.
type Client struct {
	baseURL        string
	accountID      string
	applicationKey string
	http           *http.Client
	log            *slog.Logger
	retryDelays    []time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryDelays overrides the backoff schedule between attempts.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) { c.retryDelays = delays }
}

// New builds a client for the given account credentials.
func New(accountID, applicationKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		accountID:      accountID,
		applicationKey: applicationKey,
		http:           &http.Client{Timeout: 30 * time.Second},
		log:            slog.Default(),
		retryDelays:    []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	return c
}

// response carries one decoded API reply. data is nil when the body was
// not valid JSON; raw keeps the text for error reporting.
type response struct {
	status int
	header http.Header
	data   any
	raw    string
}

// object coerces the reply into a map the way tool callers expect:
// non-object JSON is wrapped under "result", unparseable bodies under
// "raw".
func (r *response) object() map[string]any {
	if m, ok := r.data.(map[string]any); ok {
		return m
	}
	if r.data != nil {
		return map[string]any{"result": r.data}
	}
	return map[string]any{"raw": truncate(r.raw, 1000)}
}

// request executes one API call with retry. Rate limits (429) and
// server errors (5xx) are retried with backoff, as are network
// failures; other 4xx are returned to the caller immediately.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cin7: encode %s %s: %w", method, path, err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelays[(attempt-1)%len(c.retryDelays)]
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("cin7: build %s %s: %w", method, path, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-auth-accountid", c.accountID)
		req.Header.Set("api-auth-applicationkey", c.applicationKey)

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Warn("cin7 request retry", "method", method, "path", path, "attempt", attempt+1, "error", err)
			continue
		}

		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		c.log.Debug("cin7 request", "method", method, "path", path,
			"status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if attempt < maxRetries-1 {
				c.log.Warn("cin7 request retry", "method", method, "path", path,
					"status", resp.StatusCode, "attempt", attempt+1)
				continue
			}
		}

		out := &response{status: resp.StatusCode, header: resp.Header, raw: string(raw)}
		if len(raw) > 0 {
			var data any
			if err := json.Unmarshal(raw, &data); err == nil {
				out.data = data
			}
		}
		return out, nil
	}

	return nil, fmt.Errorf("cin7: request failed after %d retries: %w", maxRetries, lastErr)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}
