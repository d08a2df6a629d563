package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/shared/events"
	"rentalpricing/internal/domain/shared/money"
)

var (
	ErrPaymentNotFound     = errors.New("payments: not found")
	ErrInvalidPaymentState = errors.New("payments: invalid state transition")
	ErrConfirmerRequired   = errors.New("payments: confirmed by is required")
	ErrInvalidCoverage     = errors.New("payments: payment must cover at least one period")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRefunded  Status = "refunded"
)

// Payment settles PeriodCount consecutive schedule entries starting at
// PeriodIndex. Rows are only ever appended.
type Payment struct {
	ID          PaymentID
	BookingID   booking.BookingID
	PeriodIndex int
	PeriodCount int
	Amount      money.Money
	Status      Status
	CreatedAt   time.Time
	ConfirmedAt time.Time
	ConfirmedBy string
	RefundedAt  time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	ListByBooking(ctx context.Context, id booking.BookingID) ([]*Payment, error)
	Save(ctx context.Context, p *Payment) error
}

type CreateParams struct {
	ID         PaymentID
	BookingID  booking.BookingID
	Acceptance Acceptance
	CreatedAt  time.Time
}

// NewPayment records a pending payment for an accepted proposal.
func NewPayment(params CreateParams) (*Payment, error) {
	acc := params.Acceptance
	if acc.To <= acc.From || acc.From < 0 {
		return nil, ErrInvalidCoverage
	}
	now := params.CreatedAt.UTC()
	p := &Payment{
		ID:          params.ID,
		BookingID:   params.BookingID,
		PeriodIndex: acc.From,
		PeriodCount: acc.To - acc.From,
		Amount:      acc.Amount,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	p.Record(PaymentRecorded{PaymentID: p.ID, BookingID: p.BookingID, FromPeriod: acc.From, ToPeriod: acc.To, Amount: p.Amount, At: now})
	return p, nil
}

// Covers reports whether schedule index i is settled by this payment.
func (p *Payment) Covers(i int) bool {
	return i >= p.PeriodIndex && i < p.PeriodIndex+p.PeriodCount
}

// End is the first schedule index after the covered ones.
func (p *Payment) End() int {
	return p.PeriodIndex + p.PeriodCount
}

// Confirm flips pending to confirmed and records the ledger entry event.
func (p *Payment) Confirm(by string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidPaymentState
	}
	by = strings.TrimSpace(by)
	if by == "" {
		return ErrConfirmerRequired
	}
	p.Status = StatusConfirmed
	p.ConfirmedAt = now.UTC()
	p.ConfirmedBy = by
	p.Record(PaymentConfirmed{
		PaymentID:   p.ID,
		BookingID:   p.BookingID,
		FromPeriod:  p.PeriodIndex,
		ToPeriod:    p.End(),
		Amount:      p.Amount,
		ConfirmedBy: by,
		At:          p.ConfirmedAt,
	})
	return nil
}

// MarkRefunded flags a confirmed payment as refunded. The refund itself is
// handled outside this service.
func (p *Payment) MarkRefunded(now time.Time) error {
	if p.Status != StatusConfirmed {
		return ErrInvalidPaymentState
	}
	p.Status = StatusRefunded
	p.RefundedAt = now.UTC()
	return nil
}
