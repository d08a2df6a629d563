package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	domainavailability "rentalpricing/internal/domain/availability"
	domainbooking "rentalpricing/internal/domain/booking"
	domainproperty "rentalpricing/internal/domain/property"
)

const (
	confirmBookingKey = "booking.confirm"
	cancelBookingKey  = "booking.cancel"
)

type ConfirmBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

// ConfirmBookingHandler re-checks the stay against confirmed bookings under the
// property lock; of two pending bookings for the same nights only the first
// to confirm wins.
type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (result *dto.Booking, err error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = finish(err); err != nil {
			result = nil
		}
	}()

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := lockForBooking(ctx, unit, booking.PropertyID); err != nil {
		return nil, err
	}
	// Re-read after locking so a concurrent confirm is visible.
	booking, err = unit.Bookings().ByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	// A pending booking can sit past its check-in date.
	if err := domainbooking.ValidateCheckIn(booking.Stay, h.Clock.Now()); err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().ListByProperty(ctx, booking.PropertyID, booking.Stay)
	if err != nil {
		return nil, err
	}
	if !domainavailability.IsAvailable(booking.PropertyID, booking.Stay, others(existing, booking.ID)) {
		if h.Logger != nil {
			h.Logger.Warn("booking confirm lost the race", "booking_id", booking.ID, "property_id", booking.PropertyID)
		}
		return nil, domainavailability.ErrPropertyUnavailable
	}
	if err := booking.Confirm(h.Clock.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, booking.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking confirmed", "booking_id", booking.ID, "property_id", booking.PropertyID)
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

type CancelBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=512"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

// CancelBookingHandler releases the dates. Refunds are settled elsewhere.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (result *dto.Booking, err error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = finish(err); err != nil {
			result = nil
		}
	}()

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	// Cancel takes the same lock as payments so a payment never confirms
	// against a booking cancelled under it.
	if err := unit.Bookings().LockProperty(ctx, booking.PropertyID); err != nil {
		return nil, err
	}
	booking, err = unit.Bookings().ByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if err := booking.Cancel(cmd.Reason, h.Clock.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, booking.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", booking.ID, "reason", booking.CancelReason)
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

// lockForBooking reports a lost lock race as the dates being taken, which is
// what the loser of a concurrent request or confirm would have seen anyway.
func lockForBooking(ctx context.Context, unit uow.UnitOfWork, id domainproperty.PropertyID) error {
	err := unit.Bookings().LockProperty(ctx, id)
	if errors.Is(err, domainbooking.ErrPropertyLocked) {
		return fmt.Errorf("%w: %v", domainavailability.ErrPropertyUnavailable, err)
	}
	return err
}

func others(bookings []*domainbooking.Booking, id domainbooking.BookingID) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

var (
	_ commands.Handler[ConfirmBookingCommand, *dto.Booking] = (*ConfirmBookingHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.Booking]  = (*CancelBookingHandler)(nil)
)
