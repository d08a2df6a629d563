package payments

import (
	"errors"
	"fmt"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
)

var (
	ErrSequentialPayment = errors.New("payments: periods must be paid in order")
	ErrBookingNotPayable = errors.New("payments: booking is not confirmed")
	ErrBookingSettled    = errors.New("payments: booking is fully paid")
	ErrPeriodOutOfRange  = errors.New("payments: period index outside the booking schedule")
	ErrPeriodAlreadyPaid = errors.New("payments: period is already paid")
	ErrStalePayment      = errors.New("payments: payment no longer matches the outstanding schedule")
)

// Proposal is a payment a guest wants to make: either the single period at
// PeriodIndex or, with FullBalance, everything still unpaid.
type Proposal struct {
	PeriodIndex int
	FullBalance bool
}

// Acceptance is the half-open index range [From, To) a payment settles and
// the exact amount due for it.
type Acceptance struct {
	From   int
	To     int
	Amount money.Money
}

// SequentialPaymentViolation rejects a payment that skips an unpaid period.
type SequentialPaymentViolation struct {
	FirstUnpaid int
	Proposed    int
	Period      pricing.PricePeriod
}

func (e *SequentialPaymentViolation) Error() string {
	return fmt.Sprintf("payments: period %d (%s to %s) must be paid before period %d",
		e.FirstUnpaid+1,
		e.Period.Start.Format(daterange.DayLayout),
		e.Period.End.Format(daterange.DayLayout),
		e.Proposed+1)
}

func (e *SequentialPaymentViolation) Is(target error) bool {
	return target == ErrSequentialPayment
}

// PaidPeriods counts the schedule entries, contiguous from index 0, covered by
// confirmed payments.
func PaidPeriods(schedule []pricing.PricePeriod, history []*Payment) int {
	covered := make([]bool, len(schedule))
	for _, p := range history {
		if p == nil || p.Status != StatusConfirmed {
			continue
		}
		for i := p.PeriodIndex; i < p.End() && i < len(covered); i++ {
			if i >= 0 {
				covered[i] = true
			}
		}
	}
	paid := 0
	for paid < len(covered) && covered[paid] {
		paid++
	}
	return paid
}

// ValidateNextPayment accepts the next unpaid period or the full remaining
// balance, and rejects anything that would leave an earlier period unpaid.
func ValidateNextPayment(b *booking.Booking, history []*Payment, proposal Proposal) (Acceptance, error) {
	if !b.IsConfirmed() {
		return Acceptance{}, ErrBookingNotPayable
	}
	paid := PaidPeriods(b.Schedule, forBooking(b.ID, history))
	total := len(b.Schedule)
	if paid >= total {
		return Acceptance{}, ErrBookingSettled
	}
	if proposal.FullBalance {
		return accept(b.Schedule, paid, total)
	}
	idx := proposal.PeriodIndex
	switch {
	case idx < 0 || idx >= total:
		return Acceptance{}, ErrPeriodOutOfRange
	case idx < paid:
		return Acceptance{}, ErrPeriodAlreadyPaid
	case idx > paid:
		return Acceptance{}, &SequentialPaymentViolation{FirstUnpaid: paid, Proposed: idx, Period: b.Schedule[paid]}
	}
	return accept(b.Schedule, idx, idx+1)
}

// Revalidate checks a pending payment against the current history before it
// is confirmed: it must still settle exactly the next unpaid period, or the
// whole remaining balance, for the amount due.
func Revalidate(b *booking.Booking, history []*Payment, p *Payment) error {
	if p.Status != StatusPending {
		return ErrInvalidPaymentState
	}
	proposal := Proposal{PeriodIndex: p.PeriodIndex}
	if p.End() == len(b.Schedule) && p.PeriodCount > 1 {
		proposal = Proposal{FullBalance: true}
	}
	acc, err := ValidateNextPayment(b, history, proposal)
	if err != nil {
		return err
	}
	if acc.From != p.PeriodIndex || acc.To != p.End() || acc.Amount != p.Amount {
		return ErrStalePayment
	}
	return nil
}

func accept(schedule []pricing.PricePeriod, from, to int) (Acceptance, error) {
	amount := money.Zero(schedule[from].Amount.Currency)
	for _, p := range schedule[from:to] {
		next, err := amount.Add(p.Amount)
		if err != nil {
			return Acceptance{}, err
		}
		amount = next
	}
	return Acceptance{From: from, To: to, Amount: amount}, nil
}

func forBooking(id booking.BookingID, history []*Payment) []*Payment {
	out := make([]*Payment, 0, len(history))
	for _, p := range history {
		if p != nil && p.BookingID == id {
			out = append(out, p)
		}
	}
	return out
}
