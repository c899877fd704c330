package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// MeetingStateChanged is recorded whenever a meeting record enters a new
// state. From is empty for the initial RAW checkpoint.
type MeetingStateChanged struct {
	eventID    uuid.UUID
	meetingID  uuid.UUID
	from       domain.State
	to         domain.State
	occurredAt time.Time
}

func NewMeetingStateChanged(meetingID uuid.UUID, from, to domain.State, at time.Time) *MeetingStateChanged {
	return &MeetingStateChanged{
		eventID:    uuid.New(),
		meetingID:  meetingID,
		from:       from,
		to:         to,
		occurredAt: at,
	}
}

func (e *MeetingStateChanged) EventID() uuid.UUID     { return e.eventID }
func (e *MeetingStateChanged) EventType() string      { return "MeetingStateChanged" }
func (e *MeetingStateChanged) AggregateID() uuid.UUID { return e.meetingID }
func (e *MeetingStateChanged) OccurredAt() time.Time  { return e.occurredAt }

func (e *MeetingStateChanged) From() domain.State { return e.from }
func (e *MeetingStateChanged) To() domain.State   { return e.to }

func (e *MeetingStateChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID    `json:"event_id"`
		MeetingID  uuid.UUID    `json:"meeting_id"`
		From       domain.State `json:"from,omitempty"`
		To         domain.State `json:"to"`
		OccurredAt time.Time    `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		MeetingID:  e.meetingID,
		From:       e.from,
		To:         e.to,
		OccurredAt: e.occurredAt,
	})
}
