package payments

import (
	"time"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/shared/money"
)

type PaymentRecorded struct {
	PaymentID  PaymentID         `json:"payment_id"`
	BookingID  booking.BookingID `json:"booking_id"`
	FromPeriod int               `json:"from_period"`
	ToPeriod   int               `json:"to_period"`
	Amount     money.Money       `json:"amount"`
	At         time.Time         `json:"occurred_at"`
}

func (e PaymentRecorded) EventName() string     { return "payment.recorded" }
func (e PaymentRecorded) AggregateID() string   { return string(e.BookingID) }
func (e PaymentRecorded) OccurredAt() time.Time { return e.At }

// PaymentConfirmed is the ledger entry consumed by the bookkeeping system.
type PaymentConfirmed struct {
	PaymentID   PaymentID         `json:"payment_id"`
	BookingID   booking.BookingID `json:"booking_id"`
	FromPeriod  int               `json:"from_period"`
	ToPeriod    int               `json:"to_period"`
	Amount      money.Money       `json:"amount"`
	ConfirmedBy string            `json:"confirmed_by"`
	At          time.Time         `json:"occurred_at"`
}

func (e PaymentConfirmed) EventName() string     { return "payment.confirmed" }
func (e PaymentConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentConfirmed) OccurredAt() time.Time { return e.At }
