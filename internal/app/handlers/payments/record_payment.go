package payments

import (
	"context"
	"errors"
	"log/slog"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/middleware"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	domainbooking "rentalpricing/internal/domain/booking"
	domainpayments "rentalpricing/internal/domain/payments"
)

const (
	recordPaymentKey  = "payment.record"
	confirmPaymentKey = "payment.confirm"
)

type RecordPaymentCommand struct {
	BookingID       string `json:"booking_id" validate:"required"`
	PeriodIndex     int    `json:"period_index" validate:"gte=0"`
	FullBalance     bool   `json:"full_balance"`
	IdempotencyKeyV string `json:"-"`
}

func (c RecordPaymentCommand) Key() string { return recordPaymentKey }

func (c RecordPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RecordPaymentCommand) ResultPrototype() any { return &dto.Payment{} }

// RecordPaymentHandler appends a pending payment for the next unpaid period or
// the full remaining balance. The amount is always taken from the schedule.
type RecordPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	IDs        support.IDGenerator
	Logger     *slog.Logger
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (result *dto.Payment, err error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = finish(err); err != nil {
			result = nil
		}
	}()

	booking, history, err := loadLocked(ctx, unit, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	acc, err := domainpayments.ValidateNextPayment(booking, history, domainpayments.Proposal{
		PeriodIndex: cmd.PeriodIndex,
		FullBalance: cmd.FullBalance,
	})
	if err != nil {
		h.logRejection(ctx, booking.ID, cmd.PeriodIndex, err)
		return nil, err
	}
	payment, err := domainpayments.NewPayment(domainpayments.CreateParams{
		ID:         domainpayments.PaymentID(h.IDs.New()),
		BookingID:  booking.ID,
		Acceptance: acc,
		CreatedAt:  h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, payment.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment recorded", "booking_id", booking.ID, "payment_id", payment.ID, "from", acc.From, "to", acc.To, "amount", acc.Amount.String())
	}
	out := dto.MapPayment(payment)
	return &out, nil
}

func (h *RecordPaymentHandler) logRejection(ctx context.Context, id domainbooking.BookingID, index int, err error) {
	if h.Logger == nil {
		return
	}
	var violation *domainpayments.SequentialPaymentViolation
	if errors.As(err, &violation) {
		h.Logger.InfoContext(ctx, "payment out of sequence", "booking_id", id, "proposed", violation.Proposed, "first_unpaid", violation.FirstUnpaid)
		return
	}
	h.Logger.InfoContext(ctx, "payment rejected", "booking_id", id, "period_index", index, "error", err)
}

// loadLocked reads the booking and its payment history under the property
// lock, which also serializes payments of one booking.
func loadLocked(ctx context.Context, unit uow.UnitOfWork, id domainbooking.BookingID) (*domainbooking.Booking, []*domainpayments.Payment, error) {
	booking, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := unit.Bookings().LockProperty(ctx, booking.PropertyID); err != nil {
		return nil, nil, err
	}
	// Re-read so a cancel committed while waiting for the lock is seen.
	booking, err = unit.Bookings().ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	history, err := unit.Payments().ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, nil, err
	}
	return booking, history, nil
}

var _ commands.Handler[RecordPaymentCommand, *dto.Payment] = (*RecordPaymentHandler)(nil)
var _ middleware.IdempotentCommand = RecordPaymentCommand{}
