package payments

import (
	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/shared/money"
)

// PeriodStatus is the settlement state of one schedule entry.
type PeriodStatus struct {
	Index     int
	Paid      bool
	PaymentID PaymentID
}

// Ledger summarizes what has been paid against a booking schedule.
type Ledger struct {
	PaidPeriods int
	NextIndex   int
	Paid        money.Money
	Outstanding money.Money
	Periods     []PeriodStatus
}

// Settled reports whether every period is paid.
func (l Ledger) Settled() bool {
	return l.NextIndex >= len(l.Periods)
}

// Summarize builds the ledger of a booking from its payment history. Only
// confirmed payments count as paid.
func Summarize(b *booking.Booking, history []*Payment) (Ledger, error) {
	history = forBooking(b.ID, history)
	paid := PaidPeriods(b.Schedule, history)
	ledger := Ledger{
		PaidPeriods: paid,
		NextIndex:   paid,
		Paid:        money.Zero(b.Total.Currency),
		Outstanding: money.Zero(b.Total.Currency),
		Periods:     make([]PeriodStatus, len(b.Schedule)),
	}
	for i, period := range b.Schedule {
		status := PeriodStatus{Index: i}
		for _, p := range history {
			if p.Status == StatusConfirmed && p.Covers(i) {
				status.Paid = true
				status.PaymentID = p.ID
				break
			}
		}
		var err error
		if status.Paid {
			ledger.Paid, err = ledger.Paid.Add(period.Amount)
		} else {
			ledger.Outstanding, err = ledger.Outstanding.Add(period.Amount)
		}
		if err != nil {
			return Ledger{}, err
		}
		ledger.Periods[i] = status
	}
	return ledger, nil
}
