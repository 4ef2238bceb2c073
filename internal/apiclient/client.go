package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// Client wraps the three endpoints of the chat API behind one uniform
// request/response contract.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.  Tests use it to point at
// an httptest server transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a Client for the API rooted at baseURL (for example
// http://localhost:8000).  A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// no Timeout: a hung API keeps the pending indicator up, matching the browser client
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// CheckHealth calls GET /api/health.
func (c *Client) CheckHealth(ctx context.Context) (model.HealthResponse, error) {
	var out model.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return model.HealthResponse{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return out, nil
}

// ListMovies calls GET /api/movies.
func (c *Client) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var out []model.Movie
	if err := c.do(ctx, http.MethodGet, "/api/movies", nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}
	if out == nil {
		out = []model.Movie{}
	}
	return out, nil
}

// SendMessage posts text to /api/chat and returns the assistant's reply.
// The text is sent trimmed; blank text is rejected before any I/O.
func (c *Client) SendMessage(ctx context.Context, text string) (model.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatResponse{}, ErrEmptyMessage
	}
	body, err := json.Marshal(model.ChatRequest{Message: text})
	if err != nil {
		return model.ChatResponse{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	var out model.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", body, &out); err != nil {
		return model.ChatResponse{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return out, nil
}

// do performs one request and decodes a JSON body into out.  Any non-2xx
// status is an error; the body is drained so the connection can be reused.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
