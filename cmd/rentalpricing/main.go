package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalpricing/internal/app/bootstrap"
	"rentalpricing/internal/app/middleware"
	"rentalpricing/internal/app/outbox"
	"rentalpricing/internal/app/uow"
	"rentalpricing/internal/infra/broker/kafka"
	"rentalpricing/internal/infra/config"
	mongostore "rentalpricing/internal/infra/db/mongo"
	ginserver "rentalpricing/internal/infra/http/gin"
	"rentalpricing/internal/infra/obs"
	infraoutbox "rentalpricing/internal/infra/outbox"
	"rentalpricing/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "publish_events", cfg.PublishEvents())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	ready    func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

type storage struct {
	factory     uow.UoWFactory
	idempotency middleware.IdempotencyStore
	queue       infraoutbox.Queue
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var app application
	store, err := buildStorage(ctx, cfg, &app)
	if err != nil {
		return app, err
	}

	var flusher outbox.Flusher
	if cfg.PublishEvents() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID)
		if err != nil {
			return app, err
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		app.worker = &infraoutbox.Worker{
			Queue:       store.queue,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
		flusher = app.worker
	} else {
		logger.Info("no kafka brokers configured, events stay in the outbox")
	}

	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory:     store.factory,
		Idempotency:    store.idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Flusher:        flusher,
		Logger:         logger,
	})

	app.handlers = ginserver.Handlers{
		Property: ginserver.PropertyHandler{
			Commands:        buses.Commands,
			Queries:         buses.Queries,
			Logger:          logger,
			DefaultCurrency: cfg.Currency,
		},
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Payment:      ginserver.PaymentHandler{Commands: buses.Commands, Logger: logger},
	}
	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config, app *application) (storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		mem := memory.NewStore(nil)
		return storage{
			factory:     memory.Factory{Store: mem},
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			queue:       mem.Outbox(),
		}, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, err
	}
	app.closers = append(app.closers, client.Close)
	app.ready = client.Ping

	bookings, err := mongostore.NewBookingRepository(ctx, client.DB)
	if err != nil {
		return storage{}, err
	}
	paymentsRepo, err := mongostore.NewPaymentRepository(ctx, client.DB)
	if err != nil {
		return storage{}, err
	}
	outboxStore, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return storage{}, err
	}
	idempotency, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, err
	}
	return storage{
		factory: mongostore.Factory{
			DB:             client.DB,
			PropertiesRepo: mongostore.NewPropertyRepository(client.DB),
			BookingsRepo:   bookings,
			PaymentsRepo:   paymentsRepo,
			OutboxStore:    outboxStore,
		},
		idempotency: idempotency,
		queue:       outboxStore,
	}, nil
}
