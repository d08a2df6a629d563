package property

import (
	"errors"
	"testing"
	"time"

	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/shared/money"
)

func TestNewPropertyValidatesRates(t *testing.T) {
	_, err := NewProperty(CreateParams{
		ID:    "p-1",
		Host:  "h-1",
		Title: "Loft",
		Rates: pricing.RateSchedule{Nightly: money.Must(0, "USD")},
		Now:   time.Now(),
	})
	if !errors.Is(err, pricing.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := NewProperty(CreateParams{ID: "p-1", Host: "h-1", Rates: pricing.RateSchedule{Nightly: money.Must(100, "USD")}}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestUpdateRatesDetachesSchedule(t *testing.T) {
	weekly := money.Must(60000, "USD")
	p, err := NewProperty(CreateParams{
		ID:    "p-1",
		Host:  "h-1",
		Title: "Loft",
		Rates: pricing.RateSchedule{Nightly: money.Must(10000, "USD"), Weekly: &weekly},
		Now:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weekly.Amount = 1
	if p.Rates.Weekly.Amount != 60000 {
		t.Fatalf("property schedule aliases caller memory")
	}
	p.ClearEvents()

	monthly := money.Must(180000, "USD")
	if err := p.UpdateRates(pricing.RateSchedule{Nightly: money.Must(9000, "USD"), Monthly: &monthly}, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rates.Weekly != nil || p.Rates.Monthly.Amount != 180000 {
		t.Fatalf("unexpected rates %+v", p.Rates)
	}
	evs := p.PendingEvents()
	if len(evs) != 1 || evs[0].EventName() != "property.rates_changed" {
		t.Fatalf("unexpected events %+v", evs)
	}
	if err := p.UpdateRates(pricing.RateSchedule{Nightly: money.Must(-1, "USD")}, time.Now()); !errors.Is(err, pricing.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}
