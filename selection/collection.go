package selection

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/storage"
)

// CompareLimit is the maximum number of vehicles compared side by side.
const CompareLimit = 2

// Metrics receives selection changes.
type Metrics interface {
	RecordToggle(ctx context.Context, set string, changed, rejected bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordToggle(context.Context, string, bool, bool) {}

// ToggleResult describes the outcome of a toggle.
type ToggleResult struct {
	Changed  bool
	Rejected bool
	// Added is true when the id is now a member.
	Added bool
	Size  int
	Limit int
}

// Err returns SELECTION_LIMIT_REACHED for a rejected toggle, nil otherwise.
func (r ToggleResult) Err() error {
	if !r.Rejected {
		return nil
	}
	return apperrors.SelectionLimitReached(r.Limit)
}

// Collection is a persisted, ordered set of vehicle ids.
type Collection struct {
	name    string
	key     string
	max     int
	kv      storage.Store
	logger  *logging.Logger
	metrics Metrics
	audit   *logging.AuditLogger

	mu     sync.Mutex
	ids    []string
	loaded bool
}

// Option configures a Collection or RecentlyViewed.
type Option func(*options)

type options struct {
	logger  *logging.Logger
	metrics Metrics
	audit   *logging.AuditLogger
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAudit records clears in the audit log.
func WithAudit(a *logging.AuditLogger) Option {
	return func(o *options) { o.audit = a }
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.Nop(), metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCollection creates a collection persisted under key. max <= 0 is unbounded.
func NewCollection(name, key string, max int, kv storage.Store, opts ...Option) *Collection {
	o := buildOptions(opts)
	return &Collection{
		name:    name,
		key:     key,
		max:     max,
		kv:      kv,
		logger:  o.logger.WithComponent("selection").With("set", name),
		metrics: o.metrics,
		audit:   o.audit,
	}
}

// NewFavorites creates the unbounded favorites set.
func NewFavorites(kv storage.Store, opts ...Option) *Collection {
	return NewCollection("favorites", storage.KeyFavorites, 0, kv, opts...)
}

// NewCompareList creates the compare list, limited to CompareLimit.
func NewCompareList(kv storage.Store, opts ...Option) *Collection {
	return NewCollection("compare", storage.KeyCompareList, CompareLimit, kv, opts...)
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Max returns the capacity, 0 when unbounded.
func (c *Collection) Max() int { return c.max }

// Load reads the persisted ids. A missing or unreadable value loads as empty.
func (c *Collection) Load(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return c.snapshotLocked()
}

func (c *Collection) loadLocked(ctx context.Context) {
	var ids []string
	err := storage.GetJSON(ctx, c.kv, c.key, &ids)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		c.logger.WithError(apperrors.PersistenceUnavailable(err, "read", c.key)).
			Warn("treating unreadable selection as empty")
	}
	c.ids = dedupe(ids, c.max)
	c.loaded = true
}

func (c *Collection) ensureLoaded(ctx context.Context) {
	if !c.loaded {
		c.loadLocked(ctx)
	}
}

// Toggle adds or removes id.
func (c *Collection) Toggle(ctx context.Context, id string) ToggleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	next, changed, rejected := Toggle(c.ids, id, c.max)
	if changed {
		c.storeLocked(ctx, next)
	}
	c.metrics.RecordToggle(ctx, c.name, changed, rejected)

	result := ToggleResult{
		Changed:  changed,
		Rejected: rejected,
		Added:    containsID(c.ids, id),
		Size:     len(c.ids),
		Limit:    c.max,
	}
	if rejected {
		c.logger.Info("selection limit reached", "id", id, "limit", c.max)
	}
	return result
}

// Remove deletes id and reports whether it was present.
func (c *Collection) Remove(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	if !containsID(c.ids, id) {
		return false
	}
	next, _, _ := Toggle(c.ids, id, c.max)
	c.storeLocked(ctx, next)
	return true
}

// Clear empties the collection.
func (c *Collection) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	cleared := len(c.ids)
	c.storeLocked(ctx, []string{})
	c.audit.Log(ctx, logging.AuditEvent{
		Type:     logging.AuditEventSelectionCleared,
		Resource: &logging.AuditResource{Type: "selection", ID: c.name},
		Outcome:  logging.AuditOutcomeSuccess,
		Details:  map[string]any{"cleared": cleared},
	})
}

// Contains reports whether id is a member.
func (c *Collection) Contains(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return containsID(c.ids, id)
}

// IDs returns a copy of the members in insertion order.
func (c *Collection) IDs(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return c.snapshotLocked()
}

// Len returns the number of members.
func (c *Collection) Len(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return len(c.ids)
}

// storeLocked persists next, then makes it the in-memory value.
// A failed write is logged and the new value is still kept for the session.
func (c *Collection) storeLocked(ctx context.Context, next []string) {
	if err := storage.SetJSON(ctx, c.kv, c.key, next); err != nil {
		c.logger.WithError(apperrors.PersistenceUnavailable(err, "write", c.key)).
			Warn("selection not persisted")
	}
	c.ids = next
}

func (c *Collection) snapshotLocked() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
