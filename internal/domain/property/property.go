package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/shared/events"
)

var (
	ErrIDRequired       = errors.New("property: id is required")
	ErrHostRequired     = errors.New("property: host is required")
	ErrTitleRequired    = errors.New("property: title is required")
	ErrPropertyNotFound = errors.New("property: not found")
)

type PropertyID string
type HostID string

// Property owns the rate schedule the pricing engine reads.
type Property struct {
	ID        PropertyID
	Host      HostID
	Title     string
	Address   string
	Rates     pricing.RateSchedule
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID      PropertyID
	Host    HostID
	Title   string
	Address string
	Rates   pricing.RateSchedule
	Now     time.Time
}

func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := params.Rates.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	p := &Property{
		ID:        params.ID,
		Host:      params.Host,
		Title:     strings.TrimSpace(params.Title),
		Address:   strings.TrimSpace(params.Address),
		Rates:     copySchedule(params.Rates),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Record(PropertyCreated{PropertyID: p.ID, HostID: p.Host, At: now})
	return p, nil
}

// UpdateDetails changes descriptive fields only.
func (p *Property) UpdateDetails(title, address string, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	p.Title = strings.TrimSpace(title)
	p.Address = strings.TrimSpace(address)
	p.UpdatedAt = now.UTC()
	return nil
}

// UpdateRates replaces the rate schedule. Existing bookings keep the schedule
// they were priced with.
func (p *Property) UpdateRates(rates pricing.RateSchedule, now time.Time) error {
	if err := rates.Validate(); err != nil {
		return err
	}
	p.Rates = copySchedule(rates)
	p.UpdatedAt = now.UTC()
	p.Record(RatesChanged{PropertyID: p.ID, Nightly: rates.Nightly.Amount, Currency: rates.Currency(), At: p.UpdatedAt})
	return nil
}

func copySchedule(s pricing.RateSchedule) pricing.RateSchedule {
	out := pricing.RateSchedule{Nightly: s.Nightly}
	if s.Weekly != nil {
		w := *s.Weekly
		out.Weekly = &w
	}
	if s.Monthly != nil {
		m := *s.Monthly
		out.Monthly = &m
	}
	return out
}
