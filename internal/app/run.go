package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// ShutdownGrace is how long Run waits for the runner after a signal.
var ShutdownGrace = 15 * time.Second

// Run executes run until it returns or SIGINT/SIGTERM arrives, and converts
// the outcome into a process exit code.
func Run(serviceName string, logger zerolog.Logger, run Runner) int {
	log := logger.With().Str("service", serviceName).Logger()
	log.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return wait(ctx, log, run)
}

func wait(ctx context.Context, log zerolog.Logger, run Runner) int {
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		select {
		case err := <-errCh:
			if failed(ctx, err) {
				log.Error().Err(err).Msg("failed during shutdown")
				return 1
			}
		case <-time.After(ShutdownGrace):
			log.Warn().Dur("grace", ShutdownGrace).Msg("shutdown grace period exceeded")
			return 1
		}
		log.Info().Msg("stopped")
		return 0
	case err := <-errCh:
		if failed(ctx, err) {
			log.Error().Err(err).Msg("failed")
			return 1
		}
		log.Info().Msg("stopped")
		return 0
	}
}

// failed reports whether err is a real failure rather than the runner
// acknowledging cancellation.
func failed(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return ctx.Err() == nil || !errors.Is(err, context.Canceled)
}
