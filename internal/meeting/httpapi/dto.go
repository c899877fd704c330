package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

type SummaryResponse struct {
	Text        string   `json:"text"`
	ActionItems []string `json:"action_items"`
}

type MeetingResponse struct {
	ID           uuid.UUID        `json:"id"`
	State        string           `json:"state"`
	AudioLocator string           `json:"audio_locator"`
	Transcript   *string          `json:"transcript"`
	Summary      *SummaryResponse `json:"summary"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type ListResponse struct {
	Meetings []MeetingResponse `json:"meetings"`
	Count    int               `json:"count"`
}

type ErrorResponse struct {
	Error     string     `json:"error"`
	MeetingID *uuid.UUID `json:"meeting_id,omitempty"`
	Step      string     `json:"step,omitempty"`
}

func toMeetingResponse(m models.MeetingRecord) MeetingResponse {
	resp := MeetingResponse{
		ID:           m.ID,
		State:        string(m.State),
		AudioLocator: m.AudioLocator,
		Transcript:   m.Transcript,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Summary != nil {
		items := m.Summary.ActionItems
		if items == nil {
			items = []string{}
		}
		resp.Summary = &SummaryResponse{Text: m.Summary.Text, ActionItems: items}
	}
	return resp
}
