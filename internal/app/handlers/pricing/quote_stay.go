package pricing

import (
	"context"

	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	domainpricing "rentalpricing/internal/domain/pricing"
	domainproperty "rentalpricing/internal/domain/property"
)

const quoteStayKey = "pricing.quote"

type QuoteStayQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

// QuoteStayHandler prices a stay against the property's current rates. Past
// dates are allowed: quoting does not reserve anything.
type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	stay, err := dto.ParseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := domainpricing.QuoteStay(prop.Rates, stay)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(string(prop.ID), quote), nil
}

var _ queries.Handler[QuoteStayQuery, dto.Quote] = (*QuoteStayHandler)(nil)
