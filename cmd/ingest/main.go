package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/romariotrain/meeting-pipeline/internal/app"
	"github.com/romariotrain/meeting-pipeline/internal/cli"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/watcher"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(build).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func build(ctx context.Context, configPath string) (*cli.Dependencies, error) {
	cfg, logger, err := app.Bootstrap(configPath)
	if err != nil {
		return nil, err
	}
	d, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	watch := func(ctx context.Context, dir string) error {
		wc := cfg.Watch
		if dir != "" {
			wc.Dir = dir
		}
		w, err := watcher.New(watcher.Config{
			Dir:           wc.Dir,
			MaxConcurrent: wc.MaxConcurrent,
			Logger:        logger,
		}, d.Service)
		if err != nil {
			return err
		}
		defer w.Stop()

		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	return &cli.Dependencies{
		Service: d.Service,
		Watch:   watch,
		Close:   d.Close,
	}, nil
}
