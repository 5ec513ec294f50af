// Package apiclient is the gateway to the course backend API. Every request
// carries the bound session's bearer token, and a 401 or 403 answer expires
// that session and forces navigation to the login page before the error is
// returned to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"course-portal/internal/observability"
)

// LoginPath is where a failed authentication sends the user
const LoginPath = "/login"

const maxBodySize = 1 << 20

// Session is the view of the session store the client needs
type Session interface {
	Token() string
	Expire(ctx context.Context)
}

// Navigator performs a forced navigation
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Config is fixed at construction
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithContract validates success responses against the backend contract
func WithContract(contract *Contract) Option {
	return func(c *Client) {
		c.contract = contract
	}
}

// Client issues single-attempt requests to the backend. It never retries.
type Client struct {
	baseURL   string
	headers   http.Header
	http      *http.Client
	contract  *Contract
	session   Session
	navigator Navigator
}

// NewClient creates an unbound client. Use Bind to attach a session.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bind returns a copy of the client that authenticates as s and reports
// forced navigations to nav. Either may be nil.
func (c *Client) Bind(s Session, nav Navigator) *Client {
	bound := *c
	bound.session = s
	bound.navigator = nav
	return &bound
}

// BaseURL returns the configured backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends one request and decodes a JSON success body into out when out is
// non-nil
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, call{method: method, path: path, endpoint: path, body: body}, out)
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodHead, Path: "/", Err: err}
	}
	resp.Body.Close()
	return nil
}

type call struct {
	method   string
	path     string
	endpoint string
	body     any
}

func (c *Client) send(ctx context.Context, cl call, out any) error {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}
	c.interceptRequest(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.APIRequestDuration.WithLabelValues(cl.method, cl.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.APIRequestsTotal.WithLabelValues(cl.method, cl.endpoint, "transport_error").Inc()
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	observability.APIRequestsTotal.WithLabelValues(cl.method, cl.endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}

	if err := c.interceptResponse(ctx, cl, resp, data); err != nil {
		return err
	}

	if c.contract != nil {
		if err := c.contract.ValidateResponse(ctx, req, resp, data); err != nil {
			observability.FromContext(ctx).Warn("backend response violates contract",
				slog.String("endpoint", cl.endpoint),
				slog.String("error", err.Error()))
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %w from %s %s", ErrMalformedResponse, errEmptyBody, cl.method, cl.path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}

// interceptRequest attaches the bearer token when the session has one
func (c *Client) interceptRequest(req *http.Request) {
	if c.session == nil {
		return
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// interceptResponse turns non-2xx answers into errors. 401 and 403 first
// expire the session and force navigation to the login page.
func (c *Client) interceptResponse(ctx context.Context, cl call, resp *http.Response, data []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respErr := &ResponseError{
		Method:     cl.method,
		Path:       cl.path,
		StatusCode: resp.StatusCode,
		Body:       data,
	}

	if isAuthFailure(resp.StatusCode) {
		observability.SessionExpiredTotal.Inc()
		observability.FromContext(ctx).Info("backend rejected credentials",
			slog.String("endpoint", cl.endpoint),
			slog.Int("status", resp.StatusCode))
		if c.session != nil {
			c.session.Expire(ctx)
		}
		if c.navigator != nil {
			c.navigator.Navigate(ctx, LoginPath)
		}
	}
	return respErr
}

