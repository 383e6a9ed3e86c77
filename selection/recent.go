package selection

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// MaxRecentlyViewed is the number of viewed vehicles kept.
const MaxRecentlyViewed = 5

// ViewedRecord is a full copy of a viewed vehicle. Copies survive catalogue
// refreshes that reassign ids.
type ViewedRecord struct {
	vehicle.Record
	ViewedAt time.Time `json:"viewed_at"`
}

// AddView puts record at the front of list, replacing any entry for the same
// make, model and year, and keeps at most MaxRecentlyViewed entries.
// list is not modified.
func AddView(list []ViewedRecord, record vehicle.Record, now time.Time) []ViewedRecord {
	next := make([]ViewedRecord, 0, MaxRecentlyViewed)
	next = append(next, ViewedRecord{Record: record, ViewedAt: now})
	for _, v := range list {
		if len(next) == MaxRecentlyViewed {
			break
		}
		if v.SameVehicle(record) {
			continue
		}
		next = append(next, v)
	}
	return next
}

// RecentlyViewed is the persisted most-recent-first list of viewed vehicles.
type RecentlyViewed struct {
	kv     storage.Store
	logger *logging.Logger
	audit  *logging.AuditLogger
	now    func() time.Time

	mu     sync.Mutex
	list   []ViewedRecord
	loaded bool
}

// NewRecentlyViewed creates the recently viewed list.
func NewRecentlyViewed(kv storage.Store, opts ...Option) *RecentlyViewed {
	o := buildOptions(opts)
	return &RecentlyViewed{
		kv:     kv,
		logger: o.logger.WithComponent("selection").With("set", "recent"),
		audit:  o.audit,
		now:    time.Now,
	}
}

// Load reads the persisted list. A missing or unreadable value loads as empty.
func (r *RecentlyViewed) Load(ctx context.Context) []ViewedRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	return r.snapshotLocked()
}

func (r *RecentlyViewed) loadLocked(ctx context.Context) {
	var list []ViewedRecord
	err := storage.GetJSON(ctx, r.kv, storage.KeyRecentlyViewed, &list)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		r.logger.WithError(apperrors.PersistenceUnavailable(err, "read", storage.KeyRecentlyViewed)).
			Warn("treating unreadable recently viewed list as empty")
		list = nil
	}
	if len(list) > MaxRecentlyViewed {
		list = list[:MaxRecentlyViewed]
	}
	r.list = list
	r.loaded = true
}

// Add records a view of record and returns the updated list.
// A record without a rating or price gets the computed defaults.
func (r *RecentlyViewed) Add(ctx context.Context, record vehicle.Record) []ViewedRecord {
	if record.Rating == 0 {
		record.Rating = vehicle.Rating(record)
	}
	if record.Price <= 0 {
		record.Price = vehicle.PriceAt(record.Class, record.Year, record.Cylinders, r.now().Year())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loadLocked(ctx)
	}

	r.storeLocked(ctx, AddView(r.list, record, r.now().UTC()))
	return r.snapshotLocked()
}

// List returns the viewed vehicles, most recent first.
func (r *RecentlyViewed) List(ctx context.Context) []ViewedRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loadLocked(ctx)
	}
	return r.snapshotLocked()
}

// Clear removes every entry.
func (r *RecentlyViewed) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cleared := len(r.list)
	if err := r.kv.Remove(ctx, storage.KeyRecentlyViewed); err != nil {
		r.logger.WithError(apperrors.PersistenceUnavailable(err, "remove", storage.KeyRecentlyViewed)).
			Warn("recently viewed list not cleared in storage")
	}
	r.list = nil
	r.loaded = true
	r.audit.Log(ctx, logging.AuditEvent{
		Type:     logging.AuditEventSelectionCleared,
		Resource: &logging.AuditResource{Type: "selection", ID: "recent"},
		Outcome:  logging.AuditOutcomeSuccess,
		Details:  map[string]any{"cleared": cleared},
	})
}

func (r *RecentlyViewed) storeLocked(ctx context.Context, next []ViewedRecord) {
	if err := storage.SetJSON(ctx, r.kv, storage.KeyRecentlyViewed, next); err != nil {
		r.logger.WithError(apperrors.PersistenceUnavailable(err, "write", storage.KeyRecentlyViewed)).
			Warn("recently viewed list not persisted")
	}
	r.list = next
}

func (r *RecentlyViewed) snapshotLocked() []ViewedRecord {
	out := make([]ViewedRecord, len(r.list))
	copy(out, r.list)
	return out
}
