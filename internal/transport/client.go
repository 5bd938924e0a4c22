// Package transport issues the site's backend requests.
//
// A Client turns (method, path, payload) into one HTTP call against the
// configured origin and decodes the reply by content type. Failed calls are
// logged and returned; nothing is retried.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lydakis/sitectl/internal/httpheaders"
	"github.com/lydakis/sitectl/internal/response"
	"go.uber.org/zap"
)

// Well-known header names.
const (
	HeaderContentType   = "Content-Type"
	HeaderRequestedWith = "X-Requested-With"
	HeaderRequestID     = "X-Request-Id"

	contentTypeJSON = "application/json"
)

// DefaultHeaders returns the headers attached to every call unless overridden.
func DefaultHeaders() map[string]string {
	return map[string]string{
		HeaderContentType:   contentTypeJSON,
		HeaderRequestedWith: "XMLHttpRequest",
	}
}

// Client sends requests relative to a base origin.
// Base origin and default headers may be changed at any time; a change
// applies to calls started after it.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	headers map[string]string

	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every call made through the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL with DefaultHeaders.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		headers: DefaultHeaders(),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBaseURL changes the origin prepended to every path.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURL
}

// BaseURL returns the current origin.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetHeaders merges headers into the defaults. Existing names are replaced
// regardless of casing.
func (c *Client) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = httpheaders.Merge(c.headers, headers, true)
}

// Headers returns a copy of the default headers.
func (c *Client) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return httpheaders.Clone(c.headers)
}

func (c *Client) snapshot() (string, map[string]string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, httpheaders.Clone(c.headers)
}

// Get issues a GET. A non-nil params value is encoded into the query string.
func (c *Client) Get(ctx context.Context, path string, params any, opts ...RequestOption) (*response.Result, error) {
	return c.Do(ctx, http.MethodGet, path, params, opts...)
}

// Post issues a POST with data as the body.
func (c *Client) Post(ctx context.Context, path string, data any, opts ...RequestOption) (*response.Result, error) {
	return c.Do(ctx, http.MethodPost, path, data, opts...)
}

// Put issues a PUT with data as the body.
func (c *Client) Put(ctx context.Context, path string, data any, opts ...RequestOption) (*response.Result, error) {
	return c.Do(ctx, http.MethodPut, path, data, opts...)
}

// Patch issues a PATCH with data as the body.
func (c *Client) Patch(ctx context.Context, path string, data any, opts ...RequestOption) (*response.Result, error) {
	return c.Do(ctx, http.MethodPatch, path, data, opts...)
}

// Delete issues a DELETE. DELETE never carries a body.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*response.Result, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends one request and decodes the response.
//
// For POST, PUT and PATCH a non-nil payload becomes the body: a *Form is sent
// as multipart/form-data with any explicit Content-Type dropped, anything else
// is JSON-encoded. For GET the payload is appended as query parameters.
// A non-2xx status returns a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, payload any, opts ...RequestOption) (*response.Result, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	base, headers := c.snapshot()
	rc := newRequestConfig(headers, opts)
	target := joinURL(base, path)

	var body io.Reader
	if payload != nil {
		switch method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			data, contentType, err := encodeBody(payload)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			if _, isForm := payload.(*Form); isForm {
				httpheaders.Delete(rc.headers, HeaderContentType)
				httpheaders.Set(rc.headers, HeaderContentType, contentType)
			} else {
				httpheaders.Merge(rc.headers, map[string]string{HeaderContentType: contentType}, false)
			}
			body = bytes.NewReader(data)
		case http.MethodGet:
			query, err := encodeQuery(payload)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			target = appendQuery(target, query)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := ensureRequestID(rc.headers)
	httpheaders.Apply(req.Header, rc.headers)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("reading response failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
		c.logger.Warn("request returned error status",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return nil, statusErr
	}

	return response.Unwrap(resp.Header.Get(HeaderContentType), data)
}

func encodeBody(payload any) ([]byte, string, error) {
	if form, ok := payload.(*Form); ok {
		return form.encode()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encoding JSON body: %w", err)
	}
	return data, contentTypeJSON, nil
}

func ensureRequestID(headers map[string]string) string {
	if id, ok := httpheaders.Get(headers, HeaderRequestID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	httpheaders.Set(headers, HeaderRequestID, id)
	return id
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}
