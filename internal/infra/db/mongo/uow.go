package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	appoutbox "rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/property"
)

// Factory wires Mongo transactions into the UnitOfWork interface. The
// repositories are stateless; the session travels in the context.
type Factory struct {
	DB *mongo.Database

	PropertiesRepo property.Repository
	BookingsRepo   booking.Repository
	PaymentsRepo   payments.Repository
	OutboxStore    appoutbox.Outbox
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:    session,
		properties: f.PropertiesRepo,
		bookings:   f.BookingsRepo,
		payments:   f.PaymentsRepo,
		outbox:     f.OutboxStore,
	}, nil
}

type Unit struct {
	session mongo.Session

	properties property.Repository
	bookings   booking.Repository
	payments   payments.Repository
	outbox     appoutbox.Outbox
}

func (u *Unit) Properties() property.Repository { return u.properties }
func (u *Unit) Bookings() booking.Repository    { return u.bookings }
func (u *Unit) Payments() payments.Repository   { return u.payments }
func (u *Unit) Outbox() appoutbox.Outbox        { return u.outbox }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isTxnConflict(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories through ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
