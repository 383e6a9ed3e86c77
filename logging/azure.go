package logging

import (
	"time"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

// EventSink receives product analytics events.
type EventSink interface {
	TrackEvent(name string, properties map[string]string)
	TrackMetric(name string, value float64)
	TrackException(err error)
	TrackDependency(name, dependencyType, target, data string, duration time.Duration, success bool)
}

// AppInsightsClient wraps the Application Insights telemetry client.
// A nil *AppInsightsClient is a valid no-op sink.
type AppInsightsClient struct {
	client appinsights.TelemetryClient
}

// NewAppInsightsClient creates a client, or returns nil when no key is configured.
func NewAppInsightsClient(instrumentationKey, roleName string) *AppInsightsClient {
	if instrumentationKey == "" {
		return nil
	}

	config := appinsights.NewTelemetryConfiguration(instrumentationKey)
	config.MaxBatchSize = 1024
	config.MaxBatchInterval = 2 * time.Second

	client := appinsights.NewTelemetryClientFromConfig(config)
	if roleName != "" {
		client.Context().Tags.Cloud().SetRole(roleName)
	}

	return &AppInsightsClient{client: client}
}

// TrackEvent tracks a custom event.
func (c *AppInsightsClient) TrackEvent(name string, properties map[string]string) {
	if c == nil || c.client == nil {
		return
	}
	event := appinsights.NewEventTelemetry(name)
	for k, v := range properties {
		event.Properties[k] = v
	}
	c.client.Track(event)
}

// TrackMetric tracks a custom metric.
func (c *AppInsightsClient) TrackMetric(name string, value float64) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Track(appinsights.NewMetricTelemetry(name, value))
}

// TrackException tracks an error.
func (c *AppInsightsClient) TrackException(err error) {
	if c == nil || c.client == nil || err == nil {
		return
	}
	c.client.Track(appinsights.NewExceptionTelemetry(err))
}

// TrackDependency tracks a call to the car-data API, the identity provider or storage.
func (c *AppInsightsClient) TrackDependency(name, dependencyType, target, data string, duration time.Duration, success bool) {
	if c == nil || c.client == nil {
		return
	}
	dependency := appinsights.NewRemoteDependencyTelemetry(name, dependencyType, target, success)
	dependency.Duration = duration
	dependency.Data = data
	c.client.Track(dependency)
}

// Flush flushes pending telemetry.
func (c *AppInsightsClient) Flush() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Channel().Flush()
}

// Close flushes and waits briefly for submission. A CLI process exits right after.
func (c *AppInsightsClient) Close() {
	if c == nil || c.client == nil {
		return
	}
	select {
	case <-c.client.Channel().Close(5 * time.Second):
	case <-time.After(6 * time.Second):
	}
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) TrackEvent(string, map[string]string) {}
func (NopSink) TrackMetric(string, float64) {}
func (NopSink) TrackException(error) {}
func (NopSink) TrackDependency(string, string, string, string, time.Duration, bool) {}

var (
	_ EventSink = (*AppInsightsClient)(nil)
	_ EventSink = NopSink{}
)
