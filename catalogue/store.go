package catalogue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// DefaultBatchSize is the number of models requested on a cold load.
const DefaultBatchSize = 12

// Fetcher retrieves a batch of raw vehicles from the car-data API.
type Fetcher interface {
	FetchBatch(ctx context.Context, count int) ([]vehicle.RawVehicle, error)
}

// Metrics receives catalogue load outcomes.
type Metrics interface {
	RecordFetch(ctx context.Context, records int, duration time.Duration, err error)
	RecordCacheHit(ctx context.Context, records int)
	RecordReclassified(ctx context.Context, changed int)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(context.Context, int, time.Duration, error) {}
func (nopMetrics) RecordCacheHit(context.Context, int)                    {}
func (nopMetrics) RecordReclassified(context.Context, int)                {}

// StoreConfig configures a Store.
type StoreConfig struct {
	BatchSize int
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{BatchSize: DefaultBatchSize}
}

// Store loads the catalogue from the persistent cache or the car-data API.
type Store struct {
	fetcher Fetcher
	kv      storage.Store
	config  StoreConfig
	logger  *logging.Logger
	metrics Metrics
	events  logging.EventSink
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	snapshot Snapshot
	loaded   bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l.WithComponent("catalogue") }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithEventSink sets the sink for catalogue events.
func WithEventSink(sink logging.EventSink) StoreOption {
	return func(s *Store) { s.events = sink }
}

// WithClock sets the time source used for pricing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a catalogue store.
func NewStore(fetcher Fetcher, kv storage.Store, config StoreConfig, opts ...StoreOption) *Store {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	s := &Store{
		fetcher: fetcher,
		kv:      kv,
		config:  config,
		logger:  logging.Nop(),
		metrics: nopMetrics{},
		events:  logging.NopSink{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the in-memory snapshot without loading.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LoadOrFetch returns the catalogue, loading it on first use.
// Concurrent callers share a single load. A caller whose context ends
// gets ctx.Err() while the shared load runs to completion and is cached.
func (s *Store) LoadOrFetch(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	if s.loaded {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	ch := s.group.DoChan("load", func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// Refresh fetches count fresh records and replaces the cached catalogue.
func (s *Store) Refresh(ctx context.Context, count int) (Snapshot, error) {
	if count <= 0 {
		count = s.config.BatchSize
	}
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		return s.fetchAndStore(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return v.(Snapshot), nil
}

func (s *Store) load(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.loadCached(ctx); ok {
		s.commit(snap)
		return snap, nil
	}
	return s.fetchAndStore(ctx, s.config.BatchSize)
}

// loadCached reads the persisted catalogue and reapplies the current classification.
// It re-persists only when a type changed.
func (s *Store) loadCached(ctx context.Context) (Snapshot, bool) {
	var cached []vehicle.Record
	err := storage.GetJSON(ctx, s.kv, storage.KeyCachedCars, &cached)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.WithError(apperrors.PersistenceUnavailable(err, "read", storage.KeyCachedCars)).
				Warn("ignoring unreadable catalogue cache")
		}
		return nil, false
	}
	if len(cached) == 0 {
		return nil, false
	}

	snap := Snapshot(vehicle.Reclassify(cached))
	changed := 0
	for i := range snap {
		if snap[i].Type != cached[i].Type {
			changed++
		}
	}

	s.metrics.RecordCacheHit(ctx, len(snap))
	if changed > 0 {
		s.metrics.RecordReclassified(ctx, changed)
		s.logger.Info("reclassified cached vehicles", "changed", changed, "total", len(snap))
		s.persist(ctx, snap)
	}

	s.logger.Debug("using cached catalogue", "records", len(snap))
	return snap, true
}

func (s *Store) fetchAndStore(ctx context.Context, count int) (Snapshot, error) {
	start := s.now()
	raws, err := s.fetcher.FetchBatch(ctx, count)
	if err != nil {
		s.metrics.RecordFetch(ctx, 0, s.now().Sub(start), err)
		s.events.TrackException(err)
		s.logger.WithError(err).Error("catalogue fetch failed", "models", count)
		return nil, apperrors.FetchFailed(err)
	}

	snap := Snapshot(vehicle.Normalize(raws, s.now().Year()))
	s.metrics.RecordFetch(ctx, len(snap), s.now().Sub(start), nil)
	s.events.TrackEvent("catalogue.refreshed", map[string]string{
		"models":  strconv.Itoa(count),
		"records": strconv.Itoa(len(snap)),
	})
	s.logger.Info("fetched catalogue", "models", count, "records", len(snap))

	s.persist(ctx, snap)
	s.commit(snap)
	return snap, nil
}

// persist writes the snapshot to the cache. Failures are logged and swallowed.
func (s *Store) persist(ctx context.Context, snap Snapshot) {
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCachedCars, []vehicle.Record(snap)); err != nil {
		s.logger.WithError(apperrors.PersistenceUnavailable(err, "write", storage.KeyCachedCars)).
			Warn("failed to cache catalogue")
	}
}

func (s *Store) commit(snap Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.loaded = true
	s.mu.Unlock()
}
