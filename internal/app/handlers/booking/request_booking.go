package booking

import (
	"context"
	"log/slog"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/middleware"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	domainavailability "rentalpricing/internal/domain/availability"
	domainbooking "rentalpricing/internal/domain/booking"
	domainpricing "rentalpricing/internal/domain/pricing"
	domainproperty "rentalpricing/internal/domain/property"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	BookingID       string `json:"booking_id" validate:"omitempty,max=128"`
	PropertyID      string `json:"property_id" validate:"required"`
	GuestID         string `json:"guest_id" validate:"required,max=128"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	IdempotencyKeyV string `json:"-"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

// RequestBookingHandler prices the stay and stores a PENDING booking with its
// fixed payment schedule. The availability check runs under the property lock
// so two requests cannot both pass it.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	IDs        support.IDGenerator
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (result *dto.Booking, err error) {
	stay, err := dto.ParseStay(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	if err := domainbooking.ValidateCheckIn(stay, now); err != nil {
		return nil, err
	}

	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = finish(err); err != nil {
			result = nil
		}
	}()

	propertyID := domainproperty.PropertyID(cmd.PropertyID)
	prop, err := unit.Properties().ByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	quote, err := domainpricing.QuoteStay(prop.Rates, stay)
	if err != nil {
		return nil, err
	}

	if err := lockForBooking(ctx, unit, propertyID); err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().ListByProperty(ctx, propertyID, stay)
	if err != nil {
		return nil, err
	}
	if !domainavailability.IsAvailable(propertyID, stay, existing) {
		if h.Logger != nil {
			h.Logger.Info("booking rejected, dates taken", "property_id", propertyID, "stay", stay.String())
		}
		return nil, domainavailability.ErrPropertyUnavailable
	}

	id := cmd.BookingID
	if id == "" {
		id = h.IDs.New()
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		PropertyID: propertyID,
		GuestID:    cmd.GuestID,
		Quote:      quote,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, booking.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", booking.ID, "property_id", propertyID, "periods", len(booking.Schedule))
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

var _ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
