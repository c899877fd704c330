package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, rec models.MeetingRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *StoreMock) Update(ctx context.Context, rec models.MeetingRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.MeetingRecord), args.Error(1)
}

func (m *StoreMock) List(ctx context.Context) ([]models.MeetingRecord, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.MeetingRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AudioMock struct {
	mock.Mock
}

func (m *AudioMock) Save(ctx context.Context, data []byte, hint string) (string, error) {
	args := m.Called(ctx, data, hint)
	return args.String(0), args.Error(1)
}

type TranscriberMock struct {
	mock.Mock
}

func (m *TranscriberMock) Transcribe(ctx context.Context, audio []byte, hint string) (string, error) {
	args := m.Called(ctx, audio, hint)
	return args.String(0), args.Error(1)
}

type SummarizerMock struct {
	mock.Mock
}

func (m *SummarizerMock) Summarize(ctx context.Context, transcript string) (models.Summary, error) {
	args := m.Called(ctx, transcript)
	return args.Get(0).(models.Summary), args.Error(1)
}
