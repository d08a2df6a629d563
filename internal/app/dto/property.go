package dto

import (
	"time"

	"rentalpricing/internal/domain/property"
)

type RateSchedule struct {
	Nightly MoneyDTO  `json:"nightly"`
	Weekly  *MoneyDTO `json:"weekly,omitempty"`
	Monthly *MoneyDTO `json:"monthly,omitempty"`
}

type Property struct {
	ID        string       `json:"id"`
	HostID    string       `json:"host_id"`
	Title     string       `json:"title"`
	Address   string       `json:"address,omitempty"`
	Rates     RateSchedule `json:"rates"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func MapProperty(p *property.Property) Property {
	rates := RateSchedule{Nightly: MapMoney(p.Rates.Nightly)}
	if p.Rates.Weekly != nil {
		w := MapMoney(*p.Rates.Weekly)
		rates.Weekly = &w
	}
	if p.Rates.Monthly != nil {
		m := MapMoney(*p.Rates.Monthly)
		rates.Monthly = &m
	}
	return Property{
		ID:        string(p.ID),
		HostID:    string(p.Host),
		Title:     p.Title,
		Address:   p.Address,
		Rates:     rates,
		UpdatedAt: p.UpdatedAt,
	}
}
