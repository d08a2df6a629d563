package property

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	domainpricing "rentalpricing/internal/domain/pricing"
	domainproperty "rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/money"
)

const upsertPropertyKey = "property.upsert"

var ErrHostMismatch = errors.New("property: host cannot be changed")

type UpsertPropertyCommand struct {
	PropertyID  string `json:"property_id" validate:"required,max=128"`
	HostID      string `json:"host_id" validate:"required,max=128"`
	Title       string `json:"title" validate:"required,max=256"`
	Address     string `json:"address" validate:"max=512"`
	Currency    string `json:"currency" validate:"required,len=3,alpha"`
	NightlyRate int64  `json:"nightly_rate" validate:"gt=0"`
	WeeklyRate  *int64 `json:"weekly_rate" validate:"omitempty,gt=0"`
	MonthlyRate *int64 `json:"monthly_rate" validate:"omitempty,gt=0"`
}

func (c UpsertPropertyCommand) Key() string { return upsertPropertyKey }

// Rates builds the tiered schedule in the command currency.
func (c UpsertPropertyCommand) Rates() (domainpricing.RateSchedule, error) {
	currency := strings.ToUpper(strings.TrimSpace(c.Currency))
	nightly, err := money.New(c.NightlyRate, currency)
	if err != nil {
		return domainpricing.RateSchedule{}, err
	}
	schedule := domainpricing.RateSchedule{Nightly: nightly}
	if c.WeeklyRate != nil {
		weekly, err := money.New(*c.WeeklyRate, currency)
		if err != nil {
			return domainpricing.RateSchedule{}, err
		}
		schedule.Weekly = &weekly
	}
	if c.MonthlyRate != nil {
		monthly, err := money.New(*c.MonthlyRate, currency)
		if err != nil {
			return domainpricing.RateSchedule{}, err
		}
		schedule.Monthly = &monthly
	}
	return schedule, schedule.Validate()
}

type UpsertPropertyHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *UpsertPropertyHandler) Handle(ctx context.Context, cmd UpsertPropertyCommand) (result *dto.Property, err error) {
	rates, err := cmd.Rates()
	if err != nil {
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

	now := h.Clock.Now()
	id := domainproperty.PropertyID(strings.TrimSpace(cmd.PropertyID))
	prop, err := unit.Properties().ByID(ctx, id)
	switch {
	case errors.Is(err, domainproperty.ErrPropertyNotFound):
		prop, err = domainproperty.NewProperty(domainproperty.CreateParams{
			ID:      id,
			Host:    domainproperty.HostID(strings.TrimSpace(cmd.HostID)),
			Title:   cmd.Title,
			Address: cmd.Address,
			Rates:   rates,
			Now:     now,
		})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if string(prop.Host) != strings.TrimSpace(cmd.HostID) {
			return nil, ErrHostMismatch
		}
		if err := prop.UpdateDetails(cmd.Title, cmd.Address, now); err != nil {
			return nil, err
		}
		if err := prop.UpdateRates(rates, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, prop.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("property saved", "property_id", prop.ID, "nightly", rates.Nightly.String())
	}
	out := dto.MapProperty(prop)
	return &out, nil
}

var _ commands.Handler[UpsertPropertyCommand, *dto.Property] = (*UpsertPropertyHandler)(nil)
