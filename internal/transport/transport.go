// Package transport is the single HTTP chokepoint to the provider API. It
// attaches credentials, enforces the per-call timeout, applies the retry
// policy and classifies every outcome into a *domain.Error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/retry"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://api.vultr.com/v2"
	DefaultTimeout = 30 * time.Second
	userAgent      = "vultrcli"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client sends authenticated JSON requests. It is immutable after New and
// safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	reads   retry.Config
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-call timeout. Zero or negative values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithReadRetry overrides the retry policy for idempotent requests.
func WithReadRetry(cfg retry.Config) Option {
	return func(c *Client) { c.reads = cfg }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client authenticating with the given bearer token.
func New(token string, opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		timeout: DefaultTimeout,
		http:    &http.Client{},
		reads:   retry.Idempotent(),
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one API call.
type Request struct {
	// Op names the operation for error messages, e.g. "list regions".
	Op     string
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Expect lists the status codes that count as success. Defaults to 200.
	Expect []int
}

// Response is a successful outcome.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do sends req and returns the response when its status is in req.Expect.
// Every other outcome is returned as a *domain.Error. GET requests are
// retried once on server or network failure; other methods are sent once.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, domain.NewValidationError(req.Op, err, "failed to encode request: %v", err)
		}
		payload = data
	}

	policy := retry.Once()
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		policy = c.reads
	}

	var resp *Response
	err := retry.Do(ctx, policy, domain.IsTransient, func(attempt int) error {
		var err error
		resp, err = c.send(ctx, req, payload, attempt)
		return err
	})
	if err != nil {
		// A context that ends before or between attempts never reaches
		// send, so its error is still unclassified here.
		if domain.KindOf(err) == 0 && ctx.Err() != nil {
			return nil, &domain.Error{Kind: domain.KindNetwork, Op: req.Op, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// DoJSON is Do followed by decoding the body into out. An undecodable
// success body is a server error.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) (int, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return resp.StatusCode, &domain.Error{
			Kind:       domain.KindServer,
			Op:         req.Op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        err,
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) send(ctx context.Context, req Request, payload []byte, attempt int) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, domain.NewValidationError(req.Op, err, "failed to build request: %v", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	fields := logrus.Fields{
		"method":  req.Method,
		"path":    req.Path,
		"attempt": attempt,
	}
	start := time.Now()

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.WithFields(fields).WithError(err).Debug("request failed")
		return nil, &domain.Error{Kind: domain.KindNetwork, Op: req.Op, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Op: req.Op, Err: fmt.Errorf("reading response: %w", err)}
	}

	fields["status"] = httpResp.StatusCode
	fields["duration"] = time.Since(start).Round(time.Millisecond)
	c.log.WithFields(fields).Debug("request completed")

	if err := Classify(req.Op, httpResp.StatusCode, data, req.Expect); err != nil {
		return nil, err
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

// apiError is the provider's error body.
type apiError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Classify maps a received status and body onto the outcome taxonomy. It
// returns nil when status is one of expect (200 when expect is empty).
func Classify(op string, status int, body []byte, expect []int) error {
	if len(expect) == 0 {
		expect = []int{http.StatusOK}
	}
	if slices.Contains(expect, status) {
		return nil
	}

	msg := errorMessage(body)
	switch {
	case status >= 400 && status < 500:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &domain.Error{Kind: domain.KindClient, Op: op, StatusCode: status, Message: msg}
	case status >= 200 && status < 300:
		return &domain.Error{
			Kind:       domain.KindServer,
			Op:         op,
			StatusCode: status,
			Message:    fmt.Sprintf("unexpected status, want one of %v", expect),
		}
	default:
		return &domain.Error{Kind: domain.KindServer, Op: op, StatusCode: status, Message: msg}
	}
}

func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	if body[0] == '{' || body[0] == '<' {
		return ""
	}
	return string(body)
}
