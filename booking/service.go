package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/randutil"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/validation"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// Metrics receives confirmed bookings.
type Metrics interface {
	RecordBooking(ctx context.Context, method string, total int)
}

type nopMetrics struct{}

func (nopMetrics) RecordBooking(context.Context, string, int) {}

// Service creates and tracks bookings persisted under storage.KeyBookings.
type Service struct {
	kv      storage.Store
	src     randutil.Source
	now     func() time.Time
	newID   func() string
	logger  *logging.Logger
	audit   *logging.AuditLogger
	events  logging.EventSink
	metrics Metrics

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent("booking") }
}

// WithAudit records booking lifecycle events.
func WithAudit(a *logging.AuditLogger) Option {
	return func(s *Service) { s.audit = a }
}

// WithEventSink sets the telemetry event sink.
func WithEventSink(sink logging.EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a booking service.
func NewService(kv storage.Store, src randutil.Source, opts ...Option) *Service {
	s := &Service{
		kv:      kv,
		src:     src,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logging.Nop(),
		events:  logging.NopSink{},
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote builds an unsaved booking for car with a random period, branch and fees.
func (s *Service) Quote(car vehicle.Record, method PaymentMethod) (*Booking, error) {
	b := &Booking{
		Car:            car,
		Period:         s.rentalPeriod(),
		PickupLocation: randutil.Pick(s.src, PickupLocations),
		PaymentMethod:  method,
		Status:         StatusConfirmed,
	}
	b.Price = s.priceBreakdown(car.Price, b.Period.Days)

	if err := validation.ToAppError(b, "invalid booking"); err != nil {
		return nil, err
	}
	return b, nil
}

// Create quotes and stores a confirmed booking for userID.
func (s *Service) Create(ctx context.Context, userID string, car vehicle.Record, method PaymentMethod) (*Booking, error) {
	b, err := s.Quote(car, method)
	if err != nil {
		return nil, err
	}
	b.UserID = userID
	if err := s.Confirm(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Confirm assigns an id and appends b to the booking history.
// Unlike selections a booking that cannot be stored is reported as failed.
func (s *Service) Confirm(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Writing over an unreadable history would drop every earlier booking.
	bookings, err := s.loadLocked(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to read booking history", "car", b.Car.ID)
		s.audit.LogBooking(ctx, logging.AuditEventBookingCreated, b.UserID, "", logging.AuditOutcomeFailure, nil)
		return err
	}

	b.ID = s.newID()
	b.BookedAt = s.now().UTC()
	b.Status = StatusConfirmed
	bookings = append(bookings, *b)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyBookings, bookings); err != nil {
		s.logger.WithError(err).Error("failed to save booking", "car", b.Car.ID)
		s.audit.LogBooking(ctx, logging.AuditEventBookingCreated, b.UserID, b.ID, logging.AuditOutcomeFailure, nil)
		return apperrors.PersistenceUnavailable(err, "write", storage.KeyBookings)
	}

	s.metrics.RecordBooking(ctx, string(b.PaymentMethod), b.Price.Total)
	s.events.TrackEvent("booking.created", map[string]string{
		"car":     b.Car.Title(),
		"payment": string(b.PaymentMethod),
		"total":   strconv.Itoa(b.Price.Total),
	})
	s.audit.LogBooking(ctx, logging.AuditEventBookingCreated, b.UserID, b.ID, logging.AuditOutcomeSuccess, map[string]any{
		"car":   b.Car.ID,
		"days":  b.Period.Days,
		"total": b.Price.Total,
	})
	s.logger.Info("booking confirmed", "id", b.ID, "car", b.Car.Title(), "total", b.Price.Total)
	return nil
}

// List returns every stored booking in creation order.
func (s *Service) List(ctx context.Context) []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.loadLocked(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("treating unreadable booking history as empty")
		return nil
	}
	return bookings
}

// Active returns the first upcoming or ongoing booking, presented as in progress.
func (s *Service) Active(ctx context.Context) (*Booking, bool) {
	for _, b := range s.List(ctx) {
		if b.IsActive() {
			b.Status = StatusInProgress
			return &b, true
		}
	}
	return nil, false
}

// TotalTrips counts completed, ongoing and closed bookings.
func (s *Service) TotalTrips(ctx context.Context) int {
	n := 0
	for _, b := range s.List(ctx) {
		if b.CountsAsTrip() {
			n++
		}
	}
	return n
}

// SubmitReview closes booking id with a rating from 1 to 5.
func (s *Service) SubmitReview(ctx context.Context, id string, rating int, comment string) (*Booking, error) {
	review := &Review{
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		ReviewedAt: s.now().UTC(),
	}
	if rating == 0 {
		return nil, apperrors.Validation("Please select a star rating before submitting.")
	}
	if err := validation.ToAppError(review, "invalid review"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.loadLocked(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to read booking history", "booking", id)
		return nil, err
	}
	idx := -1
	for i := range bookings {
		if bookings[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NotFound("booking")
	}

	completed := review.ReviewedAt
	bookings[idx].Status = StatusClosed
	bookings[idx].Review = review
	bookings[idx].CompletedAt = &completed

	if err := storage.SetJSON(ctx, s.kv, storage.KeyBookings, bookings); err != nil {
		s.logger.WithError(err).Error("failed to save review", "booking", id)
		return nil, apperrors.PersistenceUnavailable(err, "write", storage.KeyBookings)
	}

	b := bookings[idx]
	s.audit.LogBooking(ctx, logging.AuditEventBookingReviewed, b.UserID, b.ID, logging.AuditOutcomeSuccess, map[string]any{
		"rating": rating,
	})
	s.logger.Info("booking reviewed", "id", id, "rating", rating)
	return &b, nil
}

// loadLocked reads the booking history. A missing key is an empty history.
func (s *Service) loadLocked(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	err := storage.GetJSON(ctx, s.kv, storage.KeyBookings, &bookings)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, apperrors.PersistenceUnavailable(err, "read", storage.KeyBookings)
	}
	return bookings, nil
}

// rentalPeriod starts 1 to 30 days from today and lasts 1 to 7 days.
func (s *Service) rentalPeriod() RentalPeriod {
	now := s.now()
	offset := randutil.Between(s.src, 1, 30)
	days := randutil.Between(s.src, 1, 7)

	start := time.Date(now.Year(), now.Month(), now.Day()+offset, 10, 0, 0, 0, now.Location())
	return RentalPeriod{
		Start:     start,
		End:       start.AddDate(0, 0, days),
		Days:      days,
		StartTime: PickupTime,
		EndTime:   PickupTime,
	}
}

// priceBreakdown adds a service fee of $15 to $44 and insurance of $20 to $44.
func (s *Service) priceBreakdown(dailyRate, days int) PriceBreakdown {
	p := PriceBreakdown{
		DailyRate:  dailyRate,
		Subtotal:   dailyRate * days,
		ServiceFee: randutil.Between(s.src, 15, 44),
		Insurance:  randutil.Between(s.src, 20, 44),
	}
	p.Total = p.Subtotal + p.ServiceFee + p.Insurance
	return p
}
