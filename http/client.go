// Package http provides the outbound HTTP client used for the car-data and identity APIs.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ResilientClientConfig holds configuration for the resilient HTTP client.
type ResilientClientConfig struct {
	// Name identifies the upstream in spans and breaker errors.
	Name    string
	BaseURL string
	Timeout time.Duration
	// Headers are sent with every request.
	Headers              map[string]string
	CircuitBreakerConfig CircuitBreakerConfig
	RetryConfig          RetryConfig
	// RateLimit throttles outgoing requests. Nil disables throttling.
	RateLimit *RateLimitConfig
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

// RetryConfig configures retry behavior for the HTTP client.
type RetryConfig struct {
	// MaxRetries of 0 means a single attempt.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// RateLimitConfig sizes the client-side token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultResilientClientConfig returns sensible production defaults.
func DefaultResilientClientConfig(name, baseURL string) ResilientClientConfig {
	return ResilientClientConfig{
		Name:                 name,
		BaseURL:              baseURL,
		Timeout:              15 * time.Second,
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(name),
		RetryConfig: RetryConfig{
			MaxRetries:   2,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

// ResilientClient is an HTTP client with tracing, throttling, retry and a circuit breaker.
type ResilientClient struct {
	config         ResilientClientConfig
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *TokenBucket
	tracer         trace.Tracer
}

// NewResilientClient creates a new resilient HTTP client.
func NewResilientClient(config ResilientClientConfig) *ResilientClient {
	if config.CircuitBreakerConfig.Name == "" {
		config.CircuitBreakerConfig = DefaultCircuitBreakerConfig(config.Name)
	}

	c := &ResilientClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
		tracer:         otel.Tracer("autorent/http"),
	}

	if rl := config.RateLimit; rl != nil && rl.RequestsPerSecond > 0 {
		burst := rl.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = NewTokenBucket(float64(burst), rl.RequestsPerSecond)
	}

	return c
}

// Request represents an HTTP request to be made.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// HTTPResponse represents an HTTP response from the resilient client.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, string(e.Body))
}

// StatusCode returns the status of an *HTTPError in err's chain, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Do executes an HTTP request with circuit breaker and retry protection.
func (c *ResilientClient) Do(ctx context.Context, req Request) (*HTTPResponse, error) {
	var response *HTTPResponse

	err := c.circuitBreaker.Execute(ctx, func() error {
		var doErr error
		response, doErr = c.doWithRetry(ctx, req)
		return doErr
	})
	if err != nil {
		return response, err
	}

	return response, nil
}

func (c *ResilientClient) doWithRetry(ctx context.Context, req Request) (*HTTPResponse, error) {
	var response *HTTPResponse
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		response, lastErr = c.doRequest(ctx, req)
		if lastErr == nil {
			return response, nil
		}

		if !isRetryable(ctx, lastErr, response) {
			return response, lastErr
		}

		if attempt == c.config.RetryConfig.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.calculateDelay(attempt)):
		}
	}

	return response, lastErr
}

func (c *ResilientClient) buildURL(req Request) string {
	u := c.config.BaseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// doRequest executes a single HTTP request with tracing.
func (c *ResilientClient) doRequest(ctx context.Context, req Request) (*HTTPResponse, error) {
	target := c.buildURL(req)

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, req.Path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", c.config.BaseURL+req.Path),
			attribute.String("peer.service", c.config.Name),
		),
	)
	defer span.End()

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to marshal request body")
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.config.Headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read response body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	response := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}

	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return response, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	span.SetStatus(codes.Ok, "")
	return response, nil
}

func isRetryable(ctx context.Context, err error, resp *HTTPResponse) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	// Transport errors carry no response.
	if resp == nil {
		return true
	}

	switch resp.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func (c *ResilientClient) calculateDelay(attempt int) time.Duration {
	delay := c.config.RetryConfig.InitialDelay * (1 << attempt)
	if delay > c.config.RetryConfig.MaxDelay {
		delay = c.config.RetryConfig.MaxDelay
	}
	return delay
}

// GetJSON performs a GET request and unmarshals the response into result.
func (c *ResilientClient) GetJSON(ctx context.Context, path string, query url.Values, result interface{}) error {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PostJSON performs a POST request and unmarshals a non-empty response into result.
func (c *ResilientClient) PostJSON(ctx context.Context, path string, query url.Values, body, result interface{}) error {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return err
	}
	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CircuitState returns the current state of the circuit breaker.
func (c *ResilientClient) CircuitState() CircuitState {
	return c.circuitBreaker.State()
}

// Metrics returns the circuit breaker metrics.
func (c *ResilientClient) Metrics() CircuitBreakerMetrics {
	return c.circuitBreaker.Metrics()
}
