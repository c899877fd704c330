package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/ai/aiservice"
	"github.com/romariotrain/meeting-pipeline/internal/ai/gemini"
	"github.com/romariotrain/meeting-pipeline/internal/ai/openai"
	"github.com/romariotrain/meeting-pipeline/internal/config"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/audio"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/repository"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/service"
	"github.com/romariotrain/meeting-pipeline/internal/storage/mongostore"
	"github.com/romariotrain/meeting-pipeline/internal/storage/sqlstore"
)

// Deps is the wired pipeline shared by the HTTP server and the CLI.
type Deps struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Repo    repository.MeetingRepository
	Audio   *audio.FileStore
	Service *service.Service

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Deps, error) {
	d := &Deps{Config: cfg, Logger: logger}

	if err := d.buildRepo(ctx); err != nil {
		d.Close()
		return nil, err
	}

	store, err := audio.NewFileStore(cfg.Audio.Dir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("audio store: %w", err)
	}
	d.Audio = store

	tr, sum, err := buildAI(ctx, cfg.AI)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Service = service.New(d.Repo, store, tr, sum, service.Config{
		StepTimeout: cfg.Pipeline.StepTimeout,
		Logger:      logger,
	})

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("transcriber", cfg.AI.Transcriber).
		Str("summarizer", cfg.AI.Summarizer).
		Str("audio_dir", store.Dir()).
		Msg("pipeline wired")

	return d, nil
}

func (d *Deps) buildRepo(ctx context.Context) error {
	st := d.Config.Storage
	switch st.Driver {
	case "memory":
		d.Logger.Warn().Msg("memory storage: records are lost on exit")
		d.Repo = repository.NewMemoryRepository()

	case "postgres", "sqlite":
		driver, err := sqlstore.DriverFor(st.Driver)
		if err != nil {
			return err
		}
		db, err := sqlstore.Connect(ctx, driver, st.DSN)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		d.closers = append(d.closers, db.Close)
		d.Repo = sqlstore.NewMeetingRepo(db)

	case "mongo":
		client, err := mongostore.Connect(ctx, st.Mongo.URI)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, func() error { return client.Disconnect(context.Background()) })
		repo, err := mongostore.NewMeetingRepo(ctx, client.Database(st.Mongo.Database))
		if err != nil {
			return err
		}
		d.Repo = repo

	default:
		return fmt.Errorf("unsupported storage driver %q", st.Driver)
	}
	return nil
}

func buildAI(ctx context.Context, cfg config.AIConfig) (service.Transcriber, service.Summarizer, error) {
	var (
		svcClient *aiservice.Client
		oaClient  *openai.Client
		err       error
	)
	if cfg.Transcriber == "service" || cfg.Summarizer == "service" {
		svcClient, err = aiservice.New(aiservice.Config{
			BaseURL:           cfg.ServiceURL,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.Transcriber == "openai" || cfg.Summarizer == "openai" {
		oaClient, err = openai.New(openai.Config{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			STTModel:          cfg.OpenAI.STTModel,
			ChatModel:         cfg.OpenAI.ChatModel,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var tr service.Transcriber
	switch cfg.Transcriber {
	case "service":
		tr = svcClient
	case "openai":
		tr = oaClient
	default:
		return nil, nil, fmt.Errorf("unsupported transcriber %q", cfg.Transcriber)
	}

	var sum service.Summarizer
	switch cfg.Summarizer {
	case "service":
		sum = svcClient
	case "openai":
		sum = oaClient
	case "gemini":
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, nil, err
		}
		sum = g
	default:
		return nil, nil, fmt.Errorf("unsupported summarizer %q", cfg.Summarizer)
	}

	return tr, sum, nil
}

// Close releases storage connections in reverse order of acquisition.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
