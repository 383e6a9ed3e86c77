// Package clients provides HTTP clients for the external collaborators.
package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	pkghttp "github.com/autorent/autorent-platform/pkg/http"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/randutil"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// DefaultCarDataURL is the API Ninjas v1 base URL.
const DefaultCarDataURL = "https://api.api-ninjas.com/v1"

// PopularModels is the pool random batches are drawn from.
var PopularModels = []string{
	"camry", "corolla", "civic", "accord", "f150", "silverado", "ram", "escape",
	"cr-v", "rav4", "highlander", "pilot", "explorer", "tahoe", "suburban",
	"altima", "sentra", "maxima", "rogue", "pathfinder",
}

// premiumParams are rejected on the free tier and are never forwarded.
var premiumParams = []string{"limit", "offset"}

// CarDataClientConfig holds configuration for the car-data client.
type CarDataClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Concurrency bounds the per-model fan-out.
	Concurrency int
	// RequestsPerSecond throttles calls to the API. Zero disables throttling.
	RequestsPerSecond float64
	Models            []string
}

// DefaultCarDataClientConfig returns sensible defaults.
func DefaultCarDataClientConfig(apiKey string) CarDataClientConfig {
	return CarDataClientConfig{
		BaseURL:           DefaultCarDataURL,
		APIKey:            apiKey,
		Timeout:           10 * time.Second,
		Concurrency:       4,
		RequestsPerSecond: 8,
		Models:            PopularModels,
	}
}

// CarDataClient fetches raw vehicle records.
type CarDataClient struct {
	client *pkghttp.ResilientClient
	config CarDataClientConfig
	source randutil.Source
	logger *logging.Logger
	events logging.EventSink
}

// CarDataOption configures a CarDataClient.
type CarDataOption func(*CarDataClient)

// WithRandomSource sets the source used to pick models.
func WithRandomSource(src randutil.Source) CarDataOption {
	return func(c *CarDataClient) { c.source = src }
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) CarDataOption {
	return func(c *CarDataClient) { c.logger = l.WithComponent("cardata") }
}

// WithEventSink reports each call as a dependency.
func WithEventSink(sink logging.EventSink) CarDataOption {
	return func(c *CarDataClient) { c.events = sink }
}

// NewCarDataClient creates a car-data client.
// Requests are not retried: a failed fetch is surfaced so the caller can offer a retry.
func NewCarDataClient(config CarDataClientConfig, opts ...CarDataOption) *CarDataClient {
	rc := pkghttp.DefaultResilientClientConfig("cardata", config.BaseURL)
	rc.Timeout = config.Timeout
	rc.RetryConfig.MaxRetries = 0
	rc.Headers = map[string]string{"X-Api-Key": config.APIKey}
	if config.RequestsPerSecond > 0 {
		rc.RateLimit = &pkghttp.RateLimitConfig{
			RequestsPerSecond: config.RequestsPerSecond,
			Burst:             config.Concurrency,
		}
	}
	if len(config.Models) == 0 {
		config.Models = PopularModels
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	c := &CarDataClient{
		client: pkghttp.NewResilientClient(rc),
		config: config,
		source: randutil.NewTimeSeeded(),
		logger: logging.Nop(),
		events: logging.NopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch calls GET /cars with the given filter parameters.
func (c *CarDataClient) Fetch(ctx context.Context, params map[string]string) ([]vehicle.RawVehicle, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	for _, p := range premiumParams {
		query.Del(p)
	}

	start := time.Now()
	var raws []vehicle.RawVehicle
	err := c.client.GetJSON(ctx, "/cars", query, &raws)
	c.events.TrackDependency("GET /cars", "HTTP", c.config.BaseURL, query.Encode(), time.Since(start), err == nil)
	if err != nil {
		c.logger.Warn("car data request failed", "query", query.Encode(), "error", err.Error())
		return nil, fmt.Errorf("fetch cars %s: %w", query.Encode(), err)
	}

	c.logger.Debug("car data request", "query", query.Encode(), "results", len(raws))
	return raws, nil
}

// FetchModel fetches entries for a single model name.
func (c *CarDataClient) FetchModel(ctx context.Context, model string) ([]vehicle.RawVehicle, error) {
	return c.Fetch(ctx, map[string]string{"model": model})
}

// FetchBatch queries count distinct random models concurrently and flattens the results.
// Any failed request fails the batch. Empty entries are dropped.
func (c *CarDataClient) FetchBatch(ctx context.Context, count int) ([]vehicle.RawVehicle, error) {
	models := randutil.Sample(c.source, c.config.Models, count)
	results := make([][]vehicle.RawVehicle, len(models))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			raws, err := c.FetchModel(gctx, model)
			if err != nil {
				return err
			}
			results[i] = raws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []vehicle.RawVehicle
	for _, raws := range results {
		for _, raw := range raws {
			if raw.IsEmpty() {
				continue
			}
			out = append(out, raw)
		}
	}

	c.logger.Info("fetched car batch", "models", len(models), "results", len(out))
	return out, nil
}

// Ping checks the API with a single model lookup.
func (c *CarDataClient) Ping(ctx context.Context) error {
	_, err := c.FetchModel(ctx, "camry")
	return err
}

// CircuitState exposes the upstream breaker state for health reporting.
func (c *CarDataClient) CircuitState() pkghttp.CircuitState {
	return c.client.CircuitState()
}
