package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/app"
	"github.com/romariotrain/meeting-pipeline/internal/config"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/kafka"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/outbox"
	"github.com/romariotrain/meeting-pipeline/internal/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $"+app.ConfigEnv+")")
	flag.Parse()

	cfg, logger, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := app.Run("publish", logger, func(ctx context.Context) error {
		return run(ctx, cfg, logger)
	})
	os.Exit(code)
}

// run relays outbox rows written by the SQL stores to Kafka.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	driver, err := sqlstore.DriverFor(cfg.Storage.Driver)
	if err != nil {
		return fmt.Errorf("outbox needs a SQL storage driver: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}

	db, err := sqlstore.Connect(ctx, driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	if err := producer.HealthCheck(ctx); err != nil {
		logger.Warn().Err(err).Msg("kafka is not reachable yet")
	}

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		Store:     sqlstore.NewOutboxRepo(db),
		Producer:  producer,
		Interval:  cfg.Outbox.Interval,
		BatchSize: cfg.Outbox.BatchSize,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	return publisher.Start(ctx)
}
