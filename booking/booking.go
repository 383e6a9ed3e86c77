// Package booking implements the simulated rental booking flow.
package booking

import (
	"time"

	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
	StatusCancelled  Status = "cancelled"
)

// PaymentMethod is how the renter pays at pickup.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// DisplayName returns the label shown in summaries.
func (p PaymentMethod) DisplayName() string {
	if p == PaymentCash {
		return "Cash"
	}
	return "Credit card"
}

// PickupTime is the fixed pickup and return time.
const PickupTime = "10:00 AM"

// PickupLocations are the branches a booking can be assigned to.
var PickupLocations = []string{
	"Universității nr. 1, Oradea, 410087, Bihor",
	"Strada Republicii nr. 15, Cluj-Napoca, 400015, Cluj",
	"Bulevardul Unirii nr. 12, București, 030167, Bucharest",
	"Strada Memorandului nr. 28, Timișoara, 300134, Timiș",
	"Piața Unirii nr. 9, Iași, 700056, Iași",
}

// RentalPeriod is the simulated rental window.
type RentalPeriod struct {
	Start     time.Time `json:"start_date"`
	End       time.Time `json:"end_date"`
	Days      int       `json:"duration"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// PriceBreakdown itemizes the booking total in whole dollars.
type PriceBreakdown struct {
	DailyRate  int `json:"daily_rate"`
	Subtotal   int `json:"subtotal"`
	ServiceFee int `json:"service_fee"`
	Insurance  int `json:"insurance"`
	Total      int `json:"total"`
}

// Review is the renter's feedback, submitted when the trip ends.
type Review struct {
	Rating     int       `json:"rating" validate:"min=1,max=5"`
	Comment    string    `json:"review" validate:"max=1000"`
	ReviewedAt time.Time `json:"review_date"`
}

// Booking is one stored reservation.
type Booking struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id,omitempty"`
	Car            vehicle.Record `json:"car"`
	Period         RentalPeriod   `json:"rental_period"`
	PickupLocation string         `json:"pickup_location"`
	Price          PriceBreakdown `json:"price_breakdown"`
	PaymentMethod  PaymentMethod  `json:"payment_method" validate:"payment_method"`
	BookedAt       time.Time      `json:"booking_date"`
	Status         Status         `json:"status" validate:"booking_status"`
	Review         *Review        `json:"review,omitempty"`
	CompletedAt    *time.Time     `json:"completed_date,omitempty"`
}

// IsActive reports whether the booking is upcoming or under way.
func (b Booking) IsActive() bool {
	return b.Status == StatusConfirmed || b.Status == StatusInProgress
}

// CountsAsTrip reports whether the booking is counted in the trip total.
func (b Booking) CountsAsTrip() bool {
	switch b.Status {
	case StatusCompleted, StatusInProgress, StatusClosed:
		return true
	}
	return false
}
