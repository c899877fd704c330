package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
)

// Summary is the output of the summarization step. The text and the action
// items are only ever set together.
type Summary struct {
	Text        string
	ActionItems []string
}

// MeetingRecord is an immutable snapshot of a processed meeting. Methods that
// advance the record return a new snapshot and leave the receiver untouched.
type MeetingRecord struct {
	ID           uuid.UUID
	AudioLocator string
	Transcript   *string
	Summary      *Summary
	State        domain.State
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMeetingRecord builds the RAW record that follows a successful audio write.
func NewMeetingRecord(id uuid.UUID, audioLocator string, now time.Time) (MeetingRecord, error) {
	if id == uuid.Nil || audioLocator == "" {
		return MeetingRecord{}, ErrInvalidArgument
	}
	return MeetingRecord{
		ID:           id,
		AudioLocator: audioLocator,
		State:        domain.Raw,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Clone returns a deep copy, so callers can hand out records without sharing
// the transcript, summary or action item backing storage.
func (m MeetingRecord) Clone() MeetingRecord {
	cp := m
	if m.Transcript != nil {
		t := *m.Transcript
		cp.Transcript = &t
	}
	if m.Summary != nil {
		cp.Summary = &Summary{
			Text:        m.Summary.Text,
			ActionItems: slices.Clone(m.Summary.ActionItems),
		}
		if cp.Summary.ActionItems == nil {
			cp.Summary.ActionItems = []string{}
		}
	}
	return cp
}

// TranscriptText returns the transcript or "" when it is absent.
func (m MeetingRecord) TranscriptText() string {
	if m.Transcript == nil {
		return ""
	}
	return *m.Transcript
}

func (m MeetingRecord) WithTranscript(text string, now time.Time) (MeetingRecord, error) {
	if err := domain.ValidateTransition(m.State, domain.Transcribed); err != nil {
		return MeetingRecord{}, err
	}
	next := m.advance(domain.Transcribed, now)
	next.Transcript = &text
	return next, nil
}

func (m MeetingRecord) WithSummary(s Summary, now time.Time) (MeetingRecord, error) {
	if err := domain.ValidateTransition(m.State, domain.Summarized); err != nil {
		return MeetingRecord{}, err
	}
	next := m.advance(domain.Summarized, now)
	next.Summary = &Summary{Text: s.Text, ActionItems: slices.Clone(s.ActionItems)}
	if next.Summary.ActionItems == nil {
		next.Summary.ActionItems = []string{}
	}
	return next, nil
}

// MarkFailed moves the record to FAILED keeping every field filled so far.
func (m MeetingRecord) MarkFailed(now time.Time) (MeetingRecord, error) {
	if err := domain.ValidateTransition(m.State, domain.Failed); err != nil {
		return MeetingRecord{}, err
	}
	return m.advance(domain.Failed, now), nil
}

func (m MeetingRecord) advance(to domain.State, now time.Time) MeetingRecord {
	next := m.Clone()
	next.State = to
	if now.Before(next.UpdatedAt) {
		now = next.UpdatedAt
	}
	next.UpdatedAt = now
	return next
}

// Validate checks the field/state invariants a stored record must satisfy.
func (m MeetingRecord) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	if m.AudioLocator == "" {
		return fmt.Errorf("%w: empty audio locator", ErrInvalidArgument)
	}
	if _, err := domain.ParseState(string(m.State)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if m.UpdatedAt.Before(m.CreatedAt) {
		return fmt.Errorf("%w: updated_at before created_at", ErrInvalidArgument)
	}

	switch m.State {
	case domain.Raw:
		if m.Transcript != nil || m.Summary != nil {
			return fmt.Errorf("%w: RAW record carries processing output", ErrInvalidArgument)
		}
	case domain.Transcribed:
		if m.Transcript == nil || m.Summary != nil {
			return fmt.Errorf("%w: TRANSCRIBED record needs a transcript and no summary", ErrInvalidArgument)
		}
	case domain.Summarized:
		if m.Transcript == nil || m.Summary == nil {
			return fmt.Errorf("%w: SUMMARIZED record needs a transcript and a summary", ErrInvalidArgument)
		}
	case domain.Failed:
		if m.Summary != nil {
			return fmt.Errorf("%w: FAILED record carries a summary", ErrInvalidArgument)
		}
	}
	return nil
}
