package booking

import (
	"context"

	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	domainbooking "rentalpricing/internal/domain/booking"
	domainpayments "rentalpricing/internal/domain/payments"
)

const getScheduleKey = "booking.schedule"

type GetScheduleQuery struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (q GetScheduleQuery) Key() string { return getScheduleKey }

// GetScheduleHandler returns the booking's periods with their paid flags.
type GetScheduleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetScheduleHandler) Handle(ctx context.Context, q GetScheduleQuery) (dto.PaymentSchedule, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentSchedule{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.PaymentSchedule{}, err
	}
	history, err := unit.Payments().ListByBooking(ctx, booking.ID)
	if err != nil {
		return dto.PaymentSchedule{}, err
	}
	ledger, err := domainpayments.Summarize(booking, history)
	if err != nil {
		return dto.PaymentSchedule{}, err
	}
	return dto.MapSchedule(booking, ledger), nil
}

var _ queries.Handler[GetScheduleQuery, dto.PaymentSchedule] = (*GetScheduleHandler)(nil)
