package memory

import (
	"errors"
	"sync"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/events"
)

var (
	ErrConcurrentUpdate = errors.New("memory: concurrent update detected")
	ErrReadOnly         = errors.New("memory: unit of work is read-only")
	ErrUnitClosed       = errors.New("memory: unit of work already finished")
)

// ErrFactoryMisconfigured indicates the factory has no store.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Store holds committed aggregates. Units of work stage their writes and
// apply them here atomically on commit.
type Store struct {
	mu         sync.RWMutex
	properties map[property.PropertyID]*property.Property
	bookings   map[booking.BookingID]*booking.Booking
	payments   map[payments.PaymentID]*payments.Payment

	locksMu sync.Mutex
	locks   map[property.PropertyID]chan struct{}

	outbox *Outbox
}

func NewStore(outbox *Outbox) *Store {
	if outbox == nil {
		outbox = NewOutbox()
	}
	return &Store{
		properties: make(map[property.PropertyID]*property.Property),
		bookings:   make(map[booking.BookingID]*booking.Booking),
		payments:   make(map[payments.PaymentID]*payments.Payment),
		locks:      make(map[property.PropertyID]chan struct{}),
		outbox:     outbox,
	}
}

func (s *Store) Outbox() *Outbox {
	return s.outbox
}

func (s *Store) lockFor(id property.PropertyID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func cloneProperty(p *property.Property) *property.Property {
	out := *p
	out.EventRecorder = events.EventRecorder{}
	if p.Rates.Weekly != nil {
		w := *p.Rates.Weekly
		out.Rates.Weekly = &w
	}
	if p.Rates.Monthly != nil {
		m := *p.Rates.Monthly
		out.Rates.Monthly = &m
	}
	return &out
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	out := *b
	out.EventRecorder = events.EventRecorder{}
	out.Schedule = append(out.Schedule[:0:0], b.Schedule...)
	return &out
}

func clonePayment(p *payments.Payment) *payments.Payment {
	out := *p
	out.EventRecorder = events.EventRecorder{}
	return &out
}
