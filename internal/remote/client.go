// Package remote submits records to the program's HTTP API.
//
// The client never returns a Go error. Every outcome, including transport
// failures, is a Result so callers can show the message and keep going: a
// failed remote submission never affects the local copy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// IdempotencyHeader carries the record's submissionId so the server can
// recognise a retried submission.
const IdempotencyHeader = "Idempotency-Key"

// Result is the outcome of a remote call.
type Result struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
}

// Client talks to the remote API rooted at a base URL.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the API root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit posts rec to the endpoint for t.
func (c *Client) Submit(ctx context.Context, t store.RecordType, rec record.Record) Result {
	ep, ok := SubmitEndpoint(t)
	if !ok {
		return Result{Error: fmt.Sprintf("no remote endpoint for record type %q", t)}
	}

	body, err := record.MarshalValue(rec)
	if err != nil {
		c.logger.Error("encode submission", "record_type", t, "error", err)
		return Result{Error: MsgTransport}
	}

	key, _ := rec.StringField("submissionId")
	return c.do(ctx, ep, body, key)
}

// ListAggregators fetches the server's aggregator list.
func (c *Client) ListAggregators(ctx context.Context) Result {
	return c.do(ctx, ListAggregators, nil, "")
}

func (c *Client) do(ctx context.Context, ep Endpoint, body []byte, idempotencyKey string) Result {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, c.baseURL+ep.Path, reader)
	if err != nil {
		c.logger.Error("build request", "path", ep.Path, "error", err)
		return Result{Error: MsgTransport}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed", "method", ep.Method, "path", ep.Path, "error", err)
		return Result{Error: MsgTransport}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("read response", "path", ep.Path, "status", resp.StatusCode, "error", err)
		return Result{Error: MsgTransport, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("remote response", "method", ep.Method, "path", ep.Path, "status", resp.StatusCode)
	return interpret(ep, resp.StatusCode, data)
}

// interpret maps a status and body to a Result.
func interpret(ep Endpoint, status int, body []byte) Result {
	res := Result{StatusCode: status}
	if len(body) > 0 && json.Valid(body) {
		res.Data = json.RawMessage(body)
	}

	if ep.accepts(status) {
		res.Success = true
		return res
	}

	msg := bodyError(body)
	if msg == "" {
		if is2xx(status) && ep.Unexpected != "" {
			msg = ep.Unexpected
		} else {
			msg = failureMessage(status)
		}
	}
	res.Error = msg
	return res
}

// bodyError extracts a top-level string "error" field, if any.
func bodyError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
