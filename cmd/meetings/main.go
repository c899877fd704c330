package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/romariotrain/meeting-pipeline/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $"+app.ConfigEnv+")")
	flag.Parse()

	cfg, logger, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := app.Run("meetings", logger, func(ctx context.Context) error {
		return run(ctx, cfg, logger)
	})
	os.Exit(code)
}
