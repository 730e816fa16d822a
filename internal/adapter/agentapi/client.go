// Package agentapi is the bridge to the external agent service. It is purely
// request/response: it never refreshes local state.
package agentapi

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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/port/cache"
	"github.com/Strob0t/PMForge/internal/resilience"
)

// templateTTL bounds how long template listings are cached. Templates are
// files on the agent side and change only on redeploy.
const templateTTL = 10 * time.Minute

// Error is a non-2xx response from the agent service.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("agent service error %d: %s", e.Status, e.Detail)
}

// IsBreakerFailure reports whether err should count against the breaker.
// 4xx answers are deliberate rejections and never trip it.
func IsBreakerFailure(err error) bool {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Status >= http.StatusInternalServerError
	}
	return true
}

// Client calls the agent service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	templates  cache.Cache
	metrics    *otel.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBreaker routes every call through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithTemplateCache caches template listings and details in tc.
func WithTemplateCache(tc cache.Cache) Option {
	return func(c *Client) { c.templates = tc }
}

// WithMetrics counts agent calls on m.
func WithMetrics(m *otel.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an agent client. Generation can take minutes, so the
// timeout is usually far longer than the REST client's.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otel.Transport(nil),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) countCall(ctx context.Context, op string, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.AgentCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	))
}

// doRequest sends a request to path with an optional JSON body and decodes
// the JSON response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var data []byte
	call := func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return &Error{Status: resp.StatusCode, Detail: errorDetail(data, resp.Status)}
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorDetail extracts the FastAPI-style {"detail": "..."} message.
func errorDetail(raw []byte, status string) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		// Validation errors carry a structured detail list.
		return string(body.Detail)
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return status
}
