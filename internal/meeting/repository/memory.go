package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

var _ MeetingRepository = (*MemoryRepository)(nil)

type MemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]models.MeetingRecord
	order []uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]models.MeetingRecord),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[m.ID]; exists {
		return models.ErrConflict
	}

	// stored records never share memory with the caller
	r.data[m.ID] = m.Clone()
	r.order = append(r.order, m.ID)

	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.data[m.ID]
	if !ok {
		return models.ErrNotFound
	}
	if cur.AudioLocator != m.AudioLocator || !cur.CreatedAt.Equal(m.CreatedAt) {
		return models.ErrConflict
	}

	r.data[m.ID] = m.Clone()
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error) {
	if id == uuid.Nil {
		return models.MeetingRecord{}, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return models.MeetingRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.data[id]
	if !ok {
		return models.MeetingRecord{}, models.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.MeetingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.MeetingRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.data[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.data, id)
	r.order = slices.DeleteFunc(r.order, func(x uuid.UUID) bool { return x == id })
	return nil
}
