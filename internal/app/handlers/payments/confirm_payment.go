package payments

import (
	"context"
	"log/slog"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	domainpayments "rentalpricing/internal/domain/payments"
)

type ConfirmPaymentCommand struct {
	PaymentID   string `json:"payment_id" validate:"required"`
	ConfirmedBy string `json:"confirmed_by" validate:"required,max=128"`
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

// ConfirmPaymentHandler marks a pending payment confirmed and writes the
// ledger entry to the outbox. Both land in one unit of work or neither does.
type ConfirmPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (result *dto.Payment, err error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = finish(err); err != nil {
			result = nil
		}
	}()

	payment, err := unit.Payments().ByID(ctx, domainpayments.PaymentID(cmd.PaymentID))
	if err != nil {
		return nil, err
	}
	booking, history, err := loadLocked(ctx, unit, payment.BookingID)
	if err != nil {
		return nil, err
	}
	for _, p := range history {
		if p.ID == payment.ID {
			payment = p
			break
		}
	}
	if err := domainpayments.Revalidate(booking, history, payment); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("payment confirm rejected", "payment_id", payment.ID, "booking_id", booking.ID, "error", err)
		}
		return nil, err
	}
	if err := payment.Confirm(cmd.ConfirmedBy, h.Clock.Now()); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, payment.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment confirmed", "payment_id", payment.ID, "booking_id", booking.ID, "amount", payment.Amount.String())
	}
	out := dto.MapPayment(payment)
	return &out, nil
}

var _ commands.Handler[ConfirmPaymentCommand, *dto.Payment] = (*ConfirmPaymentHandler)(nil)
