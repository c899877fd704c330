package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func rawRecord(t *testing.T, locator string) models.MeetingRecord {
	t.Helper()
	m, err := models.NewMeetingRecord(uuid.New(), locator, t0)
	require.NoError(t, err)
	return m
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	m := rawRecord(t, "a.wav")

	require.NoError(t, repo.Create(ctx, m))
	require.ErrorIs(t, repo.Create(ctx, m), models.ErrConflict)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestMemoryRepository_GetUnknown(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.GetByID(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestMemoryRepository_RejectsInvalidRecord(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.Create(context.Background(), models.MeetingRecord{ID: uuid.New(), State: domain.Raw})
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestMemoryRepository_UpdateReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	m := rawRecord(t, "a.wav")
	require.NoError(t, repo.Create(ctx, m))

	next, err := m.WithTranscript("hello", t0.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, next))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Transcribed, got.State)
	require.Equal(t, "hello", got.TranscriptText())

	// the audio link is fixed at creation
	moved := next
	moved.AudioLocator = "elsewhere.wav"
	require.ErrorIs(t, repo.Update(ctx, moved), models.ErrConflict)

	require.ErrorIs(t, repo.Update(ctx, rawRecord(t, "b.wav")), models.ErrNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	m := rawRecord(t, "a.wav")
	next, err := m.WithTranscript("original", t0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, m))
	require.NoError(t, repo.Update(ctx, next))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	*got.Transcript = "mutated"

	again, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "original", again.TranscriptText())
}

func TestMemoryRepository_ListKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		m := rawRecord(t, fmt.Sprintf("%d.wav", i))
		require.NoError(t, repo.Create(ctx, m))
		ids = append(ids, m.ID)
	}
	require.NoError(t, repo.Delete(ctx, ids[2]))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.Equal(t, []uuid.UUID{ids[0], ids[1], ids[3], ids[4]},
		[]uuid.UUID{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	m := rawRecord(t, "a.wav")
	require.NoError(t, repo.Create(ctx, m))

	require.NoError(t, repo.Delete(ctx, m.ID))
	require.ErrorIs(t, repo.Delete(ctx, m.ID), models.ErrNotFound)

	_, err := repo.GetByID(ctx, m.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryRepository()
	require.ErrorIs(t, repo.Create(ctx, rawRecord(t, "a.wav")), context.Canceled)
}

func TestMemoryRepository_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := models.NewMeetingRecord(uuid.New(), fmt.Sprintf("%d.wav", i), t0)
			if err == nil {
				_ = repo.Create(ctx, m)
			}
		}(i)
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
}
