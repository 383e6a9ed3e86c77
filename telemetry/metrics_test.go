package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

// sumOf adds the counter data points of name whose attributes match want.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				if matches(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func matches(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestMetrics_RecordFetch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFetch(ctx, 12, time.Second, nil)
	m.RecordFetch(ctx, 0, time.Second, errors.New("boom"))

	if got := sumOf(t, reader, "catalogue_fetch_total", attribute.String("outcome", "success")); got != 1 {
		t.Errorf("successful fetches = %d, want 1", got)
	}
	if got := sumOf(t, reader, "catalogue_fetch_total", attribute.String("outcome", "error")); got != 1 {
		t.Errorf("failed fetches = %d, want 1", got)
	}
	if got := sumOf(t, reader, "catalogue_records_fetched_total"); got != 12 {
		t.Errorf("records fetched = %d, want 12", got)
	}
}

func TestMetrics_RecordReclassified(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCacheHit(ctx, 12)
	m.RecordReclassified(ctx, 0)
	m.RecordReclassified(ctx, 3)

	if got := sumOf(t, reader, "catalogue_cache_hits_total"); got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}
	if got := sumOf(t, reader, "catalogue_reclassified_total"); got != 3 {
		t.Errorf("reclassified = %d, want 3", got)
	}
}

func TestMetrics_RecordToggle(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToggle(ctx, "compare", true, false)
	m.RecordToggle(ctx, "compare", true, false)
	m.RecordToggle(ctx, "compare", false, true)
	m.RecordToggle(ctx, "favorites", true, false)

	compare := attribute.String("set", "compare")
	if got := sumOf(t, reader, "selection_toggles_total", compare, attribute.String("result", "changed")); got != 2 {
		t.Errorf("compare changed = %d, want 2", got)
	}
	if got := sumOf(t, reader, "selection_toggles_total", compare, attribute.String("result", "rejected")); got != 1 {
		t.Errorf("compare rejected = %d, want 1", got)
	}
	if got := sumOf(t, reader, "selection_toggles_total", attribute.String("set", "favorites")); got != 1 {
		t.Errorf("favorites toggles = %d, want 1", got)
	}
}

func TestMetrics_RecordBooking(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordBooking(context.Background(), "card", 240)

	if got := sumOf(t, reader, "bookings_total", attribute.String("payment_method", "card")); got != 1 {
		t.Errorf("card bookings = %d, want 1", got)
	}
}
