package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

// MeetingRepository persists meeting records. Update replaces the whole
// record by id. GetByID and Delete return models.ErrNotFound for unknown ids,
// List returns records in creation order.
type MeetingRepository interface {
	Create(ctx context.Context, m models.MeetingRecord) error
	Update(ctx context.Context, m models.MeetingRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error)
	List(ctx context.Context) ([]models.MeetingRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
