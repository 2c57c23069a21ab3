// Package api is the field client's HTTP client for the /api surface. Writes
// go through Write, which queues them for later replay when the network is
// unavailable and reports server-side rejections straight to the caller.
package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key that makes a write safe
// to send more than once
const IdempotencyKeyHeader = "Idempotency-Key"

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() string
}

// Connectivity reports whether the client believes it is online
type Connectivity interface {
	IsOnline() bool
}

// QueuedWrite is a write handed to the offline queue
type QueuedWrite struct {
	Operation      string
	Method         string
	Endpoint       string
	Payload        json.RawMessage
	IdempotencyKey string
}

// Enqueuer stores writes that could not reach the server
type Enqueuer interface {
	EnqueueWrite(ctx context.Context, w QueuedWrite) (uuid.UUID, error)
}

// Client talks to the backend
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	tokens       TokenSource
	connectivity Connectivity
	queue        Enqueuer
	userAgent    string
	logger       *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithConnectivity lets the client fail fast while offline
func WithConnectivity(conn Connectivity) Option {
	return func(c *Client) { c.connectivity = conn }
}

// WithQueue enables queueing of writes that fail with a NetworkError
func WithQueue(q Enqueuer) Option {
	return func(c *Client) { c.queue = q }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the server at baseURL, e.g. http://depot:8080
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    u,
		userAgent:  "gasdist-fieldclient/1.0",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is a single API call. Path is relative to the base URL, e.g.
// /api/customers.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Response is a 2xx response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req. A transport failure or offline state returns a *NetworkError;
// a non-2xx response returns an *APIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	if c.connectivity != nil && !c.connectivity.IsOnline() {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: ErrOffline}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("Request failed before a response",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("Request completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, parseAPIError(httpResp.StatusCode, respBody)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: respBody}, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// WriteRequest is a create, update or delete call
type WriteRequest struct {
	// Operation tags the write for display, e.g. "customer.create"
	Operation string
	Method    string
	Path      string
	Body      any
}

// WriteResult tells the caller whether the write reached the server or was
// queued for replay
type WriteResult struct {
	Response *Response
	Queued   bool
	QueueID  uuid.UUID
}

// Write sends a write with a fresh idempotency key. A NetworkError queues the
// write under the same key when a queue is configured; a server rejection is
// returned as an *APIError and never queued.
func (c *Client) Write(ctx context.Context, w WriteRequest) (*WriteResult, error) {
	payload, err := encodeBody(w.Body)
	if err != nil {
		return nil, err
	}
	key := uuid.NewString()

	resp, err := c.Do(ctx, Request{
		Method:  w.Method,
		Path:    w.Path,
		Body:    json.RawMessage(payload),
		Headers: map[string]string{IdempotencyKeyHeader: key},
	})
	if err == nil {
		return &WriteResult{Response: resp}, nil
	}
	if !IsNetworkError(err) || c.queue == nil {
		return nil, err
	}

	id, qerr := c.queue.EnqueueWrite(ctx, QueuedWrite{
		Operation:      w.Operation,
		Method:         w.Method,
		Endpoint:       w.Path,
		Payload:        payload,
		IdempotencyKey: key,
	})
	if qerr != nil {
		return nil, fmt.Errorf("queue %s after network error (%v): %w", w.Operation, err, qerr)
	}
	c.logger.Info("Write queued for replay",
		zap.String("operation", w.Operation),
		zap.String("queue_id", id.String()),
		zap.Error(err),
	)
	return &WriteResult{Queued: true, QueueID: id}, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rel, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u := c.baseURL.ResolveReference(rel)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(b) == 0 {
			return nil, nil
		}
		return b, nil
	case []byte:
		if len(b) == 0 {
			return nil, nil
		}
		if !json.Valid(b) {
			return nil, errors.New("request body is not valid JSON")
		}
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}
