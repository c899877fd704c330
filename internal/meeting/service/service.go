package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/repository"
)

// Config holds the pipeline settings.
type Config struct {
	// StepTimeout bounds each transcription and summarization call.
	// Zero leaves the calls bounded only by the caller's context.
	StepTimeout time.Duration
	Logger      zerolog.Logger
}

// Service runs the meeting ingest pipeline and serves stored records.
type Service struct {
	repo        repository.MeetingRepository
	audio       AudioStore
	transcriber Transcriber
	summarizer  Summarizer
	stepTimeout time.Duration
	logger      zerolog.Logger
	clock       func() time.Time
	idGen       func() uuid.UUID
}

func New(repo repository.MeetingRepository, audio AudioStore, tr Transcriber, sum Summarizer, cfg Config) *Service {
	return &Service{
		repo:        repo,
		audio:       audio,
		transcriber: tr,
		summarizer:  sum,
		stepTimeout: cfg.StepTimeout,
		logger:      cfg.Logger.With().Str("component", "meeting_pipeline").Logger(),
		clock:       time.Now,
		idGen:       uuid.New,
	}
}

// Ingest stores the recording, creates its RAW record and drives it through
// transcription and summarization, persisting the record after every step.
//
// On success the SUMMARIZED record is returned. Once a record exists every
// failure is an *IngestError carrying its id, and the returned record is the
// last snapshot the pipeline tried to persist. Nothing is rolled back and
// nothing is retried.
func (s *Service) Ingest(ctx context.Context, audio []byte, filenameHint string) (models.MeetingRecord, error) {
	if len(audio) == 0 {
		return models.MeetingRecord{}, models.ErrInvalidArgument
	}

	log := s.logger.With().Str("filename", filenameHint).Int("bytes", len(audio)).Logger()

	locator, err := s.audio.Save(ctx, audio, filenameHint)
	if err == nil && locator == "" {
		err = errors.New("audio store returned an empty locator")
	}
	if err != nil {
		log.Error().Err(err).Msg("store audio failed")
		return models.MeetingRecord{}, &IngestError{Step: StepStoreAudio, Kind: models.ErrAudioStorage, Err: err}
	}

	rec, err := models.NewMeetingRecord(s.idGen(), locator, s.clock())
	if err != nil {
		return models.MeetingRecord{}, &IngestError{Step: StepCreateRecord, Kind: models.ErrPersistence, Err: err}
	}
	log = log.With().Str("meeting_id", rec.ID.String()).Logger()

	// Checkpoint writes are detached from caller cancellation.
	store := context.WithoutCancel(ctx)

	if err := s.repo.Create(store, rec); err != nil {
		log.Error().Err(err).Msg("create record failed")
		return rec, &IngestError{RecordID: rec.ID, Step: StepCreateRecord, Kind: models.ErrPersistence, Err: err}
	}
	log.Info().Str("audio_locator", locator).Str("state", string(rec.State)).Msg("meeting record created")

	text, err := s.transcribe(ctx, audio, filenameHint)
	if err != nil {
		return s.fail(ctx, log, rec, StepTranscribe, err)
	}
	rec, err = rec.WithTranscript(text, s.clock())
	if err != nil {
		return rec, &IngestError{RecordID: rec.ID, Step: StepTranscribe, Kind: models.ErrPersistence, Err: err}
	}
	if err := s.repo.Update(store, rec); err != nil {
		log.Error().Err(err).Msg("persist transcript failed")
		return rec, &IngestError{RecordID: rec.ID, Step: StepTranscribe, Kind: models.ErrPersistence, Err: err}
	}
	log.Info().Str("state", string(rec.State)).Int("transcript_len", len(text)).Msg("meeting transcribed")

	summary, err := s.summarize(ctx, text)
	if err != nil {
		return s.fail(ctx, log, rec, StepSummarize, err)
	}
	next, err := rec.WithSummary(summary, s.clock())
	if err != nil {
		return rec, &IngestError{RecordID: rec.ID, Step: StepSummarize, Kind: models.ErrPersistence, Err: err}
	}
	if err := s.repo.Update(store, next); err != nil {
		log.Error().Err(err).Msg("persist summary failed")
		return next, &IngestError{RecordID: rec.ID, Step: StepSummarize, Kind: models.ErrPersistence, Err: err}
	}
	log.Info().Str("state", string(next.State)).Int("action_items", len(summary.ActionItems)).Msg("meeting summarized")

	return next, nil
}

func (s *Service) transcribe(ctx context.Context, audio []byte, hint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ctx, cancel := s.stepContext(ctx)
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, audio, hint)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyTranscript
	}
	return text, nil
}

func (s *Service) summarize(ctx context.Context, transcript string) (models.Summary, error) {
	if err := ctx.Err(); err != nil {
		return models.Summary{}, err
	}
	ctx, cancel := s.stepContext(ctx)
	defer cancel()

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return models.Summary{}, err
	}
	if strings.TrimSpace(summary.Text) == "" {
		return models.Summary{}, errEmptySummary
	}
	return summary, nil
}

func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.stepTimeout)
}

// fail records the FAILED checkpoint for an upstream error. The write ignores
// caller cancellation so an abandoned request still leaves an accurate record.
func (s *Service) fail(ctx context.Context, log zerolog.Logger, rec models.MeetingRecord, step Step, cause error) (models.MeetingRecord, error) {
	log.Error().Err(cause).Str("step", string(step)).Msg("upstream step failed")

	failed, err := rec.MarkFailed(s.clock())
	if err != nil {
		return rec, &IngestError{RecordID: rec.ID, Step: step, Kind: models.ErrPersistence, Err: errors.Join(cause, err)}
	}
	if err := s.repo.Update(context.WithoutCancel(ctx), failed); err != nil {
		log.Error().Err(err).Msg("persist FAILED state failed")
		return failed, &IngestError{RecordID: rec.ID, Step: step, Kind: models.ErrPersistence, Err: errors.Join(cause, err)}
	}
	log.Warn().Str("state", string(failed.State)).Str("step", string(step)).Msg("meeting marked failed")

	return failed, &IngestError{RecordID: rec.ID, Step: step, Kind: models.ErrUpstream, Err: cause}
}

// GetMeeting returns a record by id, passing through models.ErrNotFound so the
// transport layer can map it.
func (s *Service) GetMeeting(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error) {
	if id == uuid.Nil {
		return models.MeetingRecord{}, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// ListMeetings returns all records in creation order.
func (s *Service) ListMeetings(ctx context.Context) ([]models.MeetingRecord, error) {
	return s.repo.List(ctx)
}

// DeleteMeeting removes the record only. The stored audio stays where it is.
func (s *Service) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("meeting_id", id.String()).Msg("meeting record deleted")
	return nil
}
