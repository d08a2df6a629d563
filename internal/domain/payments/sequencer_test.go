package payments

import (
	"errors"
	"strings"
	"testing"
	"time"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
)

var testNow = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

// confirmedBooking is a 40-night stay: monthly 200000, weekly 54000, daily 16000.
func confirmedBooking(t *testing.T) *booking.Booking {
	t.Helper()
	weekly := money.Must(60000, "USD")
	monthly := money.Must(200000, "USD")
	schedule := pricing.RateSchedule{Nightly: money.Must(10000, "USD"), Weekly: &weekly, Monthly: &monthly}
	stay, err := daterange.Parse("2025-01-01", "2025-02-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q, err := pricing.QuoteStay(schedule, stay)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := booking.NewBooking(booking.CreateParams{ID: "b-1", PropertyID: "p-1", GuestID: "g-1", Quote: q, CreatedAt: testNow})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if err := b.Confirm(testNow); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return b
}

func confirmedPayment(t *testing.T, b *booking.Booking, id PaymentID, from, to int) *Payment {
	t.Helper()
	acc, err := accept(b.Schedule, from, to)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	p, err := NewPayment(CreateParams{ID: id, BookingID: b.ID, Acceptance: acc, CreatedAt: testNow})
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	if err := p.Confirm("cashier", testNow); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	return p
}

func TestValidateNextPaymentScenario(t *testing.T) {
	b := confirmedBooking(t)
	history := []*Payment{confirmedPayment(t, b, "pay-0", 0, 1)}

	_, err := ValidateNextPayment(b, history, Proposal{PeriodIndex: 2})
	if !errors.Is(err, ErrSequentialPayment) {
		t.Fatalf("expected ErrSequentialPayment, got %v", err)
	}
	var violation *SequentialPaymentViolation
	if !errors.As(err, &violation) || violation.FirstUnpaid != 1 || violation.Proposed != 2 {
		t.Fatalf("unexpected violation %+v", violation)
	}
	if !strings.Contains(err.Error(), "period 2 (2025-02-01 to 2025-02-08)") {
		t.Fatalf("message should name the first unpaid period: %q", err.Error())
	}

	acc, err := ValidateNextPayment(b, history, Proposal{PeriodIndex: 1})
	if err != nil {
		t.Fatalf("period 1 should be accepted: %v", err)
	}
	if acc.From != 1 || acc.To != 2 || acc.Amount.Amount != 54000 {
		t.Fatalf("unexpected acceptance %+v", acc)
	}

	acc, err = ValidateNextPayment(b, history, Proposal{FullBalance: true})
	if err != nil {
		t.Fatalf("full balance should be accepted: %v", err)
	}
	if acc.From != 1 || acc.To != 3 || acc.Amount.Amount != 70000 {
		t.Fatalf("unexpected full balance %+v", acc)
	}
}

func TestValidateNextPaymentFirstPeriod(t *testing.T) {
	b := confirmedBooking(t)
	acc, err := ValidateNextPayment(b, nil, Proposal{PeriodIndex: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.Amount.Amount != 200000 {
		t.Fatalf("expected first period amount, got %d", acc.Amount.Amount)
	}
	acc, err = ValidateNextPayment(b, nil, Proposal{FullBalance: true})
	if err != nil || acc.Amount.Amount != b.Total.Amount {
		t.Fatalf("full balance from zero should equal total: %+v %v", acc, err)
	}
}

func TestValidateNextPaymentIgnoresPendingPayments(t *testing.T) {
	b := confirmedBooking(t)
	acc, _ := accept(b.Schedule, 0, 1)
	pending, err := NewPayment(CreateParams{ID: "pay-0", BookingID: b.ID, Acceptance: acc, CreatedAt: testNow})
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	_, err = ValidateNextPayment(b, []*Payment{pending}, Proposal{PeriodIndex: 1})
	if !errors.Is(err, ErrSequentialPayment) {
		t.Fatalf("pending payment must not count as paid, got %v", err)
	}
}

func TestValidateNextPaymentRejections(t *testing.T) {
	b := confirmedBooking(t)
	paidFirst := []*Payment{confirmedPayment(t, b, "pay-0", 0, 1)}

	cases := []struct {
		name     string
		history  []*Payment
		proposal Proposal
		want     error
	}{
		{name: "negative index", proposal: Proposal{PeriodIndex: -1}, want: ErrPeriodOutOfRange},
		{name: "past the schedule", proposal: Proposal{PeriodIndex: 3}, want: ErrPeriodOutOfRange},
		{name: "already paid", history: paidFirst, proposal: Proposal{PeriodIndex: 0}, want: ErrPeriodAlreadyPaid},
		{name: "skips ahead", proposal: Proposal{PeriodIndex: 1}, want: ErrSequentialPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateNextPayment(b, tc.history, tc.proposal); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateNextPaymentBookingState(t *testing.T) {
	b := confirmedBooking(t)
	settled := []*Payment{confirmedPayment(t, b, "pay-all", 0, 3)}
	if _, err := ValidateNextPayment(b, settled, Proposal{FullBalance: true}); !errors.Is(err, ErrBookingSettled) {
		t.Fatalf("expected ErrBookingSettled, got %v", err)
	}

	if err := b.Cancel("guest request", testNow); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := ValidateNextPayment(b, nil, Proposal{PeriodIndex: 0}); !errors.Is(err, ErrBookingNotPayable) {
		t.Fatalf("expected ErrBookingNotPayable, got %v", err)
	}
}

func TestPaidPeriodsCountsContiguousPrefix(t *testing.T) {
	b := confirmedBooking(t)
	first := confirmedPayment(t, b, "pay-0", 0, 1)
	last := confirmedPayment(t, b, "pay-2", 2, 3)
	if got := PaidPeriods(b.Schedule, []*Payment{last}); got != 0 {
		t.Fatalf("gap at 0 should yield 0, got %d", got)
	}
	if got := PaidPeriods(b.Schedule, []*Payment{last, first}); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	b := confirmedBooking(t)
	ledger, err := Summarize(b, []*Payment{confirmedPayment(t, b, "pay-0", 0, 1)})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if ledger.NextIndex != 1 || ledger.Paid.Amount != 200000 || ledger.Outstanding.Amount != 70000 {
		t.Fatalf("unexpected ledger %+v", ledger)
	}
	if !ledger.Periods[0].Paid || ledger.Periods[0].PaymentID != "pay-0" || ledger.Periods[1].Paid {
		t.Fatalf("unexpected period status %+v", ledger.Periods)
	}
	if ledger.Settled() {
		t.Fatalf("ledger should not be settled")
	}
}

func TestRevalidate(t *testing.T) {
	b := confirmedBooking(t)
	first := confirmedPayment(t, b, "pay-0", 0, 1)

	acc, err := ValidateNextPayment(b, []*Payment{first}, Proposal{FullBalance: true})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	balance, err := NewPayment(CreateParams{ID: "pay-rest", BookingID: b.ID, Acceptance: acc, CreatedAt: testNow})
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	if err := Revalidate(b, []*Payment{first}, balance); err != nil {
		t.Fatalf("balance payment should still be valid: %v", err)
	}

	// Period 1 gets settled separately before the balance is confirmed.
	second := confirmedPayment(t, b, "pay-1", 1, 2)
	if err := Revalidate(b, []*Payment{first, second}, balance); !errors.Is(err, ErrStalePayment) {
		t.Fatalf("expected ErrStalePayment, got %v", err)
	}

	acc, _ = accept(b.Schedule, 1, 2)
	single, _ := NewPayment(CreateParams{ID: "pay-dup", BookingID: b.ID, Acceptance: acc, CreatedAt: testNow})
	if err := Revalidate(b, []*Payment{first, second}, single); !errors.Is(err, ErrPeriodAlreadyPaid) {
		t.Fatalf("expected ErrPeriodAlreadyPaid, got %v", err)
	}
}
