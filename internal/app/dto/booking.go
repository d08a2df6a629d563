package dto

import (
	"time"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
)

type Booking struct {
	ID              string        `json:"id"`
	PropertyID      string        `json:"property_id"`
	GuestID         string        `json:"guest_id"`
	CheckIn         string        `json:"check_in"`
	CheckOut        string        `json:"check_out"`
	Status          string        `json:"status"`
	Periods         []PricePeriod `json:"periods"`
	Total           MoneyDTO      `json:"accommodation_total"`
	SecurityDeposit MoneyDTO      `json:"security_deposit"`
	GrandTotal      MoneyDTO      `json:"grand_total"`
	CreatedAt       time.Time     `json:"created_at"`
}

type ScheduledPeriod struct {
	PricePeriod
	Paid      bool   `json:"paid"`
	PaymentID string `json:"payment_id,omitempty"`
}

type PaymentSchedule struct {
	BookingID   string            `json:"booking_id"`
	Status      string            `json:"status"`
	Periods     []ScheduledPeriod `json:"periods"`
	PaidPeriods int               `json:"paid_periods"`
	NextIndex   *int              `json:"next_period_index,omitempty"`
	Paid        MoneyDTO          `json:"paid"`
	Outstanding MoneyDTO          `json:"outstanding"`
	Settled     bool              `json:"settled"`
}

func MapBooking(b *booking.Booking) Booking {
	return Booking{
		ID:              string(b.ID),
		PropertyID:      string(b.PropertyID),
		GuestID:         b.GuestID,
		CheckIn:         FormatDay(b.Stay.CheckIn),
		CheckOut:        FormatDay(b.Stay.CheckOut),
		Status:          string(b.Status),
		Periods:         MapPeriods(b.Schedule),
		Total:           MapMoney(b.Total),
		SecurityDeposit: MapMoney(b.SecurityDeposit),
		GrandTotal:      MapMoney(b.GrandTotal),
		CreatedAt:       b.CreatedAt,
	}
}

func MapSchedule(b *booking.Booking, ledger payments.Ledger) PaymentSchedule {
	periods := MapPeriods(b.Schedule)
	out := PaymentSchedule{
		BookingID:   string(b.ID),
		Status:      string(b.Status),
		Periods:     make([]ScheduledPeriod, 0, len(periods)),
		PaidPeriods: ledger.PaidPeriods,
		Paid:        MapMoney(ledger.Paid),
		Outstanding: MapMoney(ledger.Outstanding),
		Settled:     ledger.Settled(),
	}
	for i, p := range periods {
		sp := ScheduledPeriod{PricePeriod: p}
		if i < len(ledger.Periods) {
			sp.Paid = ledger.Periods[i].Paid
			sp.PaymentID = string(ledger.Periods[i].PaymentID)
		}
		out.Periods = append(out.Periods, sp)
	}
	if !out.Settled {
		next := ledger.NextIndex
		out.NextIndex = &next
	}
	return out
}
