package availability

import (
	"context"

	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	domainavailability "rentalpricing/internal/domain/availability"
	domainproperty "rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery lists every day in [From, To], both inclusive.
type GetCalendarQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
	From       string `json:"from" validate:"required,datetime=2006-01-02"`
	To         string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	from, err := daterange.ParseDay(q.From)
	if err != nil {
		return dto.Calendar{}, err
	}
	to, err := daterange.ParseDay(q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	if to.Before(from) {
		return dto.Calendar{}, domainavailability.ErrInvalidRange
	}
	if daterange.DaysBetween(from, to)+1 > domainavailability.MaxCalendarDays {
		return dto.Calendar{}, domainavailability.ErrRangeTooLong
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	id := domainproperty.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(ctx, id); err != nil {
		return dto.Calendar{}, err
	}
	window := daterange.DateRange{CheckIn: from, CheckOut: daterange.AddDays(to, 1)}
	bookings, err := unit.Bookings().ListByProperty(ctx, id, window)
	if err != nil {
		return dto.Calendar{}, err
	}
	days, err := domainavailability.ListAvailability(id, from, to, bookings)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(q.PropertyID, days), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
