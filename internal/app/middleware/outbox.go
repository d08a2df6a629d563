package middleware

import (
	"context"
	"log/slog"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/outbox"
)

// OutboxFlush asks the publisher to drain committed records after a successful
// command. It must sit outside Transaction. A failed flush is logged only: the
// records stay in the outbox and the worker retries them.
func OutboxFlush(flusher outbox.Flusher, logger *slog.Logger) CommandMiddleware {
	if flusher == nil {
		panic("middleware: outbox flusher required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := flusher.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
