package memory

import (
	"context"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
)

type propertyRepo struct{ u *Unit }

func (r propertyRepo) ByID(ctx context.Context, id property.PropertyID) (*property.Property, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if st, ok := r.u.properties[id]; ok {
		return cloneProperty(st.value), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	p, ok := r.u.store.properties[id]
	if !ok {
		return nil, property.ErrPropertyNotFound
	}
	return cloneProperty(p), nil
}

func (r propertyRepo) Save(ctx context.Context, p *property.Property) error {
	u := r.u
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	st, ok := u.properties[p.ID]
	if !ok {
		u.store.mu.RLock()
		st.base = committedVersion(u.store.properties[p.ID])
		u.store.mu.RUnlock()
		st.value = &property.Property{Version: st.base}
	}
	if p.Version != st.value.Version {
		return ErrConcurrentUpdate
	}
	p.Version++
	st.value = cloneProperty(p)
	u.properties[p.ID] = st
	return nil
}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if st, ok := r.u.bookings[id]; ok {
		return cloneBooking(st.value), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	b, ok := r.u.store.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r bookingRepo) Save(ctx context.Context, b *booking.Booking) error {
	u := r.u
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	st, ok := u.bookings[b.ID]
	if !ok {
		u.store.mu.RLock()
		st.base = committedVersion(u.store.bookings[b.ID])
		u.store.mu.RUnlock()
		st.value = &booking.Booking{Version: st.base}
	}
	if b.Version != st.value.Version {
		return ErrConcurrentUpdate
	}
	b.Version++
	st.value = cloneBooking(b)
	u.bookings[b.ID] = st
	return nil
}

func (r bookingRepo) ListByProperty(ctx context.Context, id property.PropertyID, window daterange.DateRange) ([]*booking.Booking, error) {
	u := r.u
	u.mu.Lock()
	defer u.mu.Unlock()
	seen := make(map[booking.BookingID]struct{}, len(u.bookings))
	out := make([]*booking.Booking, 0)
	for bid, st := range u.bookings {
		seen[bid] = struct{}{}
		if st.value.PropertyID == id && st.value.Stay.Overlaps(window) {
			out = append(out, cloneBooking(st.value))
		}
	}
	u.store.mu.RLock()
	for bid, b := range u.store.bookings {
		if _, ok := seen[bid]; ok {
			continue
		}
		if b.PropertyID == id && b.Stay.Overlaps(window) {
			out = append(out, cloneBooking(b))
		}
	}
	u.store.mu.RUnlock()
	sortBookings(out)
	return out, nil
}

func (r bookingRepo) LockProperty(ctx context.Context, id property.PropertyID) error {
	return r.u.lockProperty(ctx, id)
}

type paymentRepo struct{ u *Unit }

func (r paymentRepo) ByID(ctx context.Context, id payments.PaymentID) (*payments.Payment, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if st, ok := r.u.payments[id]; ok {
		return clonePayment(st.value), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	p, ok := r.u.store.payments[id]
	if !ok {
		return nil, payments.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r paymentRepo) ListByBooking(ctx context.Context, id booking.BookingID) ([]*payments.Payment, error) {
	u := r.u
	u.mu.Lock()
	defer u.mu.Unlock()
	seen := make(map[payments.PaymentID]struct{}, len(u.payments))
	out := make([]*payments.Payment, 0)
	for pid, st := range u.payments {
		seen[pid] = struct{}{}
		if st.value.BookingID == id {
			out = append(out, clonePayment(st.value))
		}
	}
	u.store.mu.RLock()
	for pid, p := range u.store.payments {
		if _, ok := seen[pid]; ok {
			continue
		}
		if p.BookingID == id {
			out = append(out, clonePayment(p))
		}
	}
	u.store.mu.RUnlock()
	sortPayments(out)
	return out, nil
}

func (r paymentRepo) Save(ctx context.Context, p *payments.Payment) error {
	u := r.u
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	st, ok := u.payments[p.ID]
	if !ok {
		u.store.mu.RLock()
		st.base = committedVersion(u.store.payments[p.ID])
		u.store.mu.RUnlock()
		st.value = &payments.Payment{Version: st.base}
	}
	if p.Version != st.value.Version {
		return ErrConcurrentUpdate
	}
	p.Version++
	st.value = clonePayment(p)
	u.payments[p.ID] = st
	return nil
}

var (
	_ property.Repository = propertyRepo{}
	_ booking.Repository  = bookingRepo{}
	_ payments.Repository = paymentRepo{}
)
