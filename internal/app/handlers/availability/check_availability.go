package availability

import (
	"context"

	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	domainavailability "rentalpricing/internal/domain/availability"
	domainproperty "rentalpricing/internal/domain/property"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	stay, err := dto.ParseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	id := domainproperty.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(ctx, id); err != nil {
		return dto.Availability{}, err
	}
	bookings, err := unit.Bookings().ListByProperty(ctx, id, stay)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{
		PropertyID: q.PropertyID,
		CheckIn:    dto.FormatDay(stay.CheckIn),
		CheckOut:   dto.FormatDay(stay.CheckOut),
		Available:  domainavailability.IsAvailable(id, stay, bookings),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
