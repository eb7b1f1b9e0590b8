// Package gateway is the authenticated HTTP client for the Spennies backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
)

// Sentinel errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
)

// maxErrorBody bounds how much of a failed response is kept for messages.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses other than 401.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// TokenSource supplies bearer tokens. Await blocks until the identity state
// has been resolved and reports whether a user is signed in.
type TokenSource interface {
	Await(ctx context.Context) (bool, error)
	FreshToken(ctx context.Context) (string, error)
}

type instruments struct {
	requests    metric.Int64Counter
	authRetries metric.Int64Counter
}

var loadInstruments = sync.OnceValue(func() instruments {
	meter := otel.Meter("gitlab.com/yelinaung/spennies-bot/internal/gateway")
	requests, err := meter.Int64Counter("spennies.gateway.requests",
		metric.WithDescription("Backend requests by method and status class"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create gateway request counter")
	}
	retries, err := meter.Int64Counter("spennies.gateway.auth_retries",
		metric.WithDescription("Requests replayed after a 401"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create gateway retry counter")
	}
	return instruments{requests: requests, authRetries: retries}
})

// NewHTTPClient returns an instrumented client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Client calls the backend on behalf of one identity.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    instruments
}

// New creates a client. tokens may be nil for anonymous calls.
func New(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		tokens:     tokens,
		metrics:    loadInstruments(),
	}
}

// Do sends one request and returns the response body. The request body is
// encoded once; a 401 triggers exactly one replay of the same bytes with a
// freshly refreshed token.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	authenticated := false
	if c.tokens != nil {
		present, err := c.tokens.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to await identity: %w", err)
		}
		authenticated = present
	}

	status, data, err := c.send(ctx, method, path, payload, authenticated)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && authenticated {
		logger.Log.Info().Str("method", method).Str("path", path).Msg("Backend returned 401, retrying with fresh token")
		c.add(ctx, c.metrics.authRetries, attribute.String("method", method))

		status, data, err = c.send(ctx, method, path, payload, true)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case status < 200 || status > 299:
		return nil, &StatusError{StatusCode: status, Body: truncate(data)}
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, authenticated bool) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token, err := c.tokens.FreshToken(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.add(ctx, c.metrics.requests, attribute.String("method", method), attribute.String("status", "error"))
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.add(ctx, c.metrics.requests, attribute.String("method", method), attribute.String("status", statusClass(resp.StatusCode)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) add(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func truncate(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}
