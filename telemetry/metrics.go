package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records catalogue, selection, booking and storage metrics.
// It satisfies the Metrics interfaces of the catalogue, selection and booking packages.
type Metrics struct {
	fetchTotal        metric.Int64Counter
	fetchDuration     metric.Float64Histogram
	fetchedRecords    metric.Int64Counter
	cacheHits         metric.Int64Counter
	reclassified      metric.Int64Counter
	selectionToggles  metric.Int64Counter
	bookingsTotal     metric.Int64Counter
	bookingValue      metric.Int64Histogram
	storageOperations metric.Int64Counter
	storageDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.fetchTotal, err = meter.Int64Counter(
		"catalogue_fetch_total",
		metric.WithDescription("Catalogue fetches from the car-data API"),
		metric.WithUnit("{fetches}"),
	); err != nil {
		return nil, err
	}

	if m.fetchDuration, err = meter.Float64Histogram(
		"catalogue_fetch_duration_seconds",
		metric.WithDescription("Catalogue fetch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	); err != nil {
		return nil, err
	}

	if m.fetchedRecords, err = meter.Int64Counter(
		"catalogue_records_fetched_total",
		metric.WithDescription("Vehicle records produced by fetches"),
		metric.WithUnit("{records}"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(
		"catalogue_cache_hits_total",
		metric.WithDescription("Catalogue loads served from the persisted cache"),
		metric.WithUnit("{loads}"),
	); err != nil {
		return nil, err
	}

	if m.reclassified, err = meter.Int64Counter(
		"catalogue_reclassified_total",
		metric.WithDescription("Cached records whose category changed on load"),
		metric.WithUnit("{records}"),
	); err != nil {
		return nil, err
	}

	if m.selectionToggles, err = meter.Int64Counter(
		"selection_toggles_total",
		metric.WithDescription("Toggle requests on favorites and compare sets"),
		metric.WithUnit("{toggles}"),
	); err != nil {
		return nil, err
	}

	if m.bookingsTotal, err = meter.Int64Counter(
		"bookings_total",
		metric.WithDescription("Confirmed bookings"),
		metric.WithUnit("{bookings}"),
	); err != nil {
		return nil, err
	}

	if m.bookingValue, err = meter.Int64Histogram(
		"booking_total_usd",
		metric.WithDescription("Booking totals in USD"),
		metric.WithUnit("USD"),
		metric.WithExplicitBucketBoundaries(50, 100, 250, 500, 1000, 2500),
	); err != nil {
		return nil, err
	}

	if m.storageOperations, err = meter.Int64Counter(
		"storage_operations_total",
		metric.WithDescription("Key-value store operations"),
		metric.WithUnit("{operations}"),
	); err != nil {
		return nil, err
	}

	if m.storageDuration, err = meter.Float64Histogram(
		"storage_operation_duration_seconds",
		metric.WithDescription("Key-value store operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordFetch records a car-data fetch.
func (m *Metrics) RecordFetch(ctx context.Context, records int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome(err)))
	m.fetchTotal.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.fetchedRecords.Add(ctx, int64(records))
	}
}

// RecordCacheHit records a load served from the persisted cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, records int) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.Int("records", records)))
}

// RecordReclassified records records whose category changed on load.
func (m *Metrics) RecordReclassified(ctx context.Context, changed int) {
	if changed > 0 {
		m.reclassified.Add(ctx, int64(changed))
	}
}

// RecordToggle records a favorites or compare toggle.
func (m *Metrics) RecordToggle(ctx context.Context, set string, changed, rejected bool) {
	result := "unchanged"
	switch {
	case rejected:
		result = "rejected"
	case changed:
		result = "changed"
	}
	m.selectionToggles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("set", set),
		attribute.String("result", result),
	))
}

// RecordBooking records a confirmed booking.
func (m *Metrics) RecordBooking(ctx context.Context, method string, total int) {
	attrs := metric.WithAttributes(attribute.String("payment_method", method))
	m.bookingsTotal.Add(ctx, 1, attrs)
	m.bookingValue.Record(ctx, int64(total), attrs)
}

// RecordStorage records a key-value store operation.
func (m *Metrics) RecordStorage(ctx context.Context, backend, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	)
	m.storageOperations.Add(ctx, 1, attrs)
	m.storageDuration.Record(ctx, duration.Seconds(), attrs)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
