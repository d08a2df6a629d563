package memory

import (
	"context"
	"sort"
	"sync"

	appoutbox "rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/property"
)

// Factory starts units over a shared Store.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:      f.Store,
		readOnly:   opts.ReadOnly,
		properties: make(map[property.PropertyID]staged[*property.Property]),
		bookings:   make(map[booking.BookingID]staged[*booking.Booking]),
		payments:   make(map[payments.PaymentID]staged[*payments.Payment]),
	}, nil
}

type staged[T any] struct {
	value T
	// base is the committed version the first write was made against.
	base int64
}

// Unit buffers writes until Commit, giving rollback and optimistic version
// checks. Property locks are held until the unit finishes.
type Unit struct {
	store    *Store
	readOnly bool

	mu         sync.Mutex
	properties map[property.PropertyID]staged[*property.Property]
	bookings   map[booking.BookingID]staged[*booking.Booking]
	payments   map[payments.PaymentID]staged[*payments.Payment]
	records    []appoutbox.EventRecord
	held       []property.PropertyID
	done       bool
}

func (u *Unit) Properties() property.Repository { return propertyRepo{u} }
func (u *Unit) Bookings() booking.Repository    { return bookingRepo{u} }
func (u *Unit) Payments() payments.Repository   { return paymentRepo{u} }
func (u *Unit) Outbox() appoutbox.Outbox        { return unitOutbox{u} }

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	defer u.finish()
	if u.readOnly {
		return nil
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range u.properties {
		if committedVersion(s.properties[id]) != st.base {
			return ErrConcurrentUpdate
		}
	}
	for id, st := range u.bookings {
		if committedVersion(s.bookings[id]) != st.base {
			return ErrConcurrentUpdate
		}
	}
	for id, st := range u.payments {
		if committedVersion(s.payments[id]) != st.base {
			return ErrConcurrentUpdate
		}
	}
	for id, st := range u.properties {
		s.properties[id] = st.value
	}
	for id, st := range u.bookings {
		s.bookings[id] = st.value
	}
	for id, st := range u.payments {
		s.payments[id] = st.value
	}
	s.outbox.append(u.records...)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *Unit) finish() {
	for _, id := range u.held {
		<-u.store.lockFor(id)
	}
	u.held = nil
	u.properties = nil
	u.bookings = nil
	u.payments = nil
	u.records = nil
	u.done = true
}

func (u *Unit) lockProperty(ctx context.Context, id property.PropertyID) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	for _, held := range u.held {
		if held == id {
			u.mu.Unlock()
			return nil
		}
	}
	u.mu.Unlock()

	select {
	case u.store.lockFor(id) <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		<-u.store.lockFor(id)
		return ErrUnitClosed
	}
	u.held = append(u.held, id)
	return nil
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

type versioned interface {
	*property.Property | *booking.Booking | *payments.Payment
}

func committedVersion[T versioned](v T) int64 {
	switch agg := any(v).(type) {
	case *property.Property:
		if agg != nil {
			return agg.Version
		}
	case *booking.Booking:
		if agg != nil {
			return agg.Version
		}
	case *payments.Payment:
		if agg != nil {
			return agg.Version
		}
	}
	return 0
}

func sortBookings(items []*booking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Stay.CheckIn.Equal(items[j].Stay.CheckIn) {
			return items[i].ID < items[j].ID
		}
		return items[i].Stay.CheckIn.Before(items[j].Stay.CheckIn)
	})
}

func sortPayments(items []*payments.Payment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].PeriodIndex == items[j].PeriodIndex {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].PeriodIndex < items[j].PeriodIndex
	})
}

var _ uow.UoWFactory = Factory{}
