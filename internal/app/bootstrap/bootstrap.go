// Package bootstrap registers every command and query handler and wraps the
// buses in the middleware chain. Storage and publishing are chosen by the
// caller.
package bootstrap

import (
	"log/slog"
	"time"

	"rentalpricing/internal/app/commands"
	availabilityapp "rentalpricing/internal/app/handlers/availability"
	bookingapp "rentalpricing/internal/app/handlers/booking"
	paymentsapp "rentalpricing/internal/app/handlers/payments"
	pricingapp "rentalpricing/internal/app/handlers/pricing"
	propertyapp "rentalpricing/internal/app/handlers/property"
	"rentalpricing/internal/app/handlers/support"
	"rentalpricing/internal/app/middleware"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	"rentalpricing/internal/app/validation"
)

type Deps struct {
	UoWFactory     uow.UoWFactory
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
	// Flusher is optional; without it records wait for the worker poll.
	Flusher   outbox.Flusher
	Validator middleware.Validator
	Encoder   outbox.EventEncoder
	Clock     support.Clock
	IDs       support.IDGenerator
	Logger    *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func Build(d Deps) Buses {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, propertyapp.UpsertPropertyCommand{}.Key(), &propertyapp.UpsertPropertyHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		Logger:     d.Logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		IDs:        d.IDs,
		Logger:     d.Logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		Logger:     d.Logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		Logger:     d.Logger,
	})
	commands.RegisterHandler(commandBus, paymentsapp.RecordPaymentCommand{}.Key(), &paymentsapp.RecordPaymentHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		IDs:        d.IDs,
		Logger:     d.Logger,
	})
	commands.RegisterHandler(commandBus, paymentsapp.ConfirmPaymentCommand{}.Key(), &paymentsapp.ConfirmPaymentHandler{
		UoWFactory: d.UoWFactory,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		Logger:     d.Logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, pricingapp.QuoteStayQuery{}.Key(), &pricingapp.QuoteStayHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, bookingapp.GetScheduleQuery{}.Key(), &bookingapp.GetScheduleHandler{UoWFactory: d.UoWFactory})

	var idempotency, flush middleware.CommandMiddleware
	if d.Idempotency != nil {
		idempotency = middleware.Idempotency(d.Idempotency, middleware.IdempotencyOptions{TTL: d.IdempotencyTTL, Now: d.Clock.Now})
	}
	if d.Flusher != nil {
		flush = middleware.OutboxFlush(d.Flusher, d.Logger)
	}

	return Buses{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Validation(d.Validator),
			idempotency,
			flush,
			middleware.Transaction(d.UoWFactory, nil),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryValidation(d.Validator),
			middleware.ReadOnlyQueries(d.UoWFactory),
		),
	}
}
