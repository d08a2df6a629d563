package dto

import (
	"time"

	"rentalpricing/internal/domain/payments"
)

type Payment struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"booking_id"`
	FromPeriod  int       `json:"from_period"`
	ToPeriod    int       `json:"to_period"`
	Amount      MoneyDTO  `json:"amount"`
	Status      string    `json:"status"`
	ConfirmedBy string    `json:"confirmed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func MapPayment(p *payments.Payment) Payment {
	return Payment{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		FromPeriod:  p.PeriodIndex,
		ToPeriod:    p.End(),
		Amount:      MapMoney(p.Amount),
		Status:      string(p.Status),
		ConfirmedBy: p.ConfirmedBy,
		CreatedAt:   p.CreatedAt,
	}
}
