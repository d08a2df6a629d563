package uow

import (
	"context"

	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/property"
)

// UnitOfWork groups repository writes and outbox records into one atomic
// commit.
type UnitOfWork interface {
	Properties() property.Repository
	Bookings() booking.Repository
	Payments() payments.Repository
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (a Mongo
// session) through the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
