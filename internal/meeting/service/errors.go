package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Step names the pipeline stage an ingest failure happened in.
type Step string

const (
	StepStoreAudio   Step = "store_audio"
	StepCreateRecord Step = "create_record"
	StepTranscribe   Step = "transcribe"
	StepSummarize    Step = "summarize"
)

var (
	errEmptyTranscript = errors.New("empty transcript")
	errEmptySummary    = errors.New("empty summary")
)

// IngestError is returned by Service.Ingest for every failure after input
// validation. Kind is one of models.ErrAudioStorage, models.ErrUpstream or
// models.ErrPersistence; errors.Is matches both Kind and the underlying cause.
//
// RecordID is uuid.Nil when no record was created. With ErrPersistence the
// stored state of RecordID is unknown.
type IngestError struct {
	RecordID uuid.UUID
	Step     Step
	Kind     error
	Err      error
}

func (e *IngestError) Error() string {
	if e.RecordID == uuid.Nil {
		return fmt.Sprintf("ingest %s: %v: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("ingest meeting %s %s: %v: %v", e.RecordID, e.Step, e.Kind, e.Err)
}

func (e *IngestError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// RecordIDOf extracts the affected record id from an ingest error.
func RecordIDOf(err error) (uuid.UUID, bool) {
	var ie *IngestError
	if errors.As(err, &ie) && ie.RecordID != uuid.Nil {
		return ie.RecordID, true
	}
	return uuid.Nil, false
}
