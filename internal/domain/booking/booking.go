package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/events"
	"rentalpricing/internal/domain/shared/money"
)

var (
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrEmptySchedule   = errors.New("booking: payment schedule must not be empty")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrPropertyLocked  = errors.New("booking: property is locked by a concurrent update")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking owns the priced period schedule of a stay. The schedule is fixed at
// creation; cancelling changes the status, never the amounts.
type Booking struct {
	ID              BookingID
	PropertyID      property.PropertyID
	GuestID         string
	Stay            daterange.DateRange
	Schedule        []pricing.PricePeriod
	Total           money.Money
	SecurityDeposit money.Money
	GrandTotal      money.Money
	Status          Status
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ConfirmedAt     time.Time
	CancelledAt     time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ListByProperty returns the property's bookings whose stay overlaps window.
	ListByProperty(ctx context.Context, id property.PropertyID, window daterange.DateRange) ([]*Booking, error)
	// LockProperty serializes booking and payment writes for one property
	// until the surrounding unit of work ends. Losing a lock race returns
	// ErrPropertyLocked.
	LockProperty(ctx context.Context, id property.PropertyID) error
}

type CreateParams struct {
	ID         BookingID
	PropertyID property.PropertyID
	GuestID    string
	Quote      pricing.Quote
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if len(params.Quote.Periods) == 0 {
		return nil, ErrEmptySchedule
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		PropertyID:      params.PropertyID,
		GuestID:         strings.TrimSpace(params.GuestID),
		Stay:            params.Quote.Stay(),
		Schedule:        pricing.CopyPeriods(params.Quote.Periods),
		Total:           params.Quote.Accommodation,
		SecurityDeposit: params.Quote.SecurityDeposit,
		GrandTotal:      params.Quote.GrandTotal,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		GuestID:    b.GuestID,
		Stay:       b.Stay,
		Periods:    len(b.Schedule),
		Total:      b.Total,
		Deposit:    b.SecurityDeposit,
		At:         now,
	})
	return b, nil
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.ConfirmedAt = b.UpdatedAt
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Stay: b.Stay, Total: b.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.CancelReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.CancelledAt = b.UpdatedAt
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Stay: b.Stay, Reason: b.CancelReason, At: b.UpdatedAt})
	return nil
}

// IsConfirmed reports whether the booking currently holds its dates.
func (b *Booking) IsConfirmed() bool {
	return b != nil && b.Status == StatusConfirmed
}

// Period returns the schedule entry at index i.
func (b *Booking) Period(i int) (pricing.PricePeriod, bool) {
	if i < 0 || i >= len(b.Schedule) {
		return pricing.PricePeriod{}, false
	}
	return b.Schedule[i], true
}
