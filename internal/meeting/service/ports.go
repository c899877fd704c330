package service

import (
	"context"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

// AudioStore persists raw recordings. Save must either store all bytes under
// a fresh, unique locator or return an error and no locator.
type AudioStore interface {
	Save(ctx context.Context, data []byte, filenameHint string) (string, error)
}

// Transcriber turns recorded audio into text. The filename hint lets remote
// capabilities guess the container format.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filenameHint string) (string, error)
}

// Summarizer condenses a transcript into a summary and ordered action items.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (models.Summary, error)
}
