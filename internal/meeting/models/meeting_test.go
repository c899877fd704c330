package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
)

var (
	testID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	baseTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
)

func newRaw(t *testing.T) MeetingRecord {
	t.Helper()
	m, err := NewMeetingRecord(testID, "uploads/audio/a.wav", baseTime)
	require.NoError(t, err)
	return m
}

func TestNewMeetingRecord(t *testing.T) {
	m := newRaw(t)
	require.Equal(t, domain.Raw, m.State)
	require.Nil(t, m.Transcript)
	require.Nil(t, m.Summary)
	require.Equal(t, baseTime, m.CreatedAt)
	require.Equal(t, baseTime, m.UpdatedAt)
	require.NoError(t, m.Validate())

	_, err := NewMeetingRecord(testID, "", baseTime)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewMeetingRecord(uuid.Nil, "loc", baseTime)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHappyPathLeavesPreviousSnapshotsUntouched(t *testing.T) {
	raw := newRaw(t)

	transcribed, err := raw.WithTranscript("hello world", baseTime.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, domain.Transcribed, transcribed.State)
	require.Equal(t, "hello world", transcribed.TranscriptText())
	require.Equal(t, baseTime.Add(time.Second), transcribed.UpdatedAt)

	items := []string{"say hi", "wave"}
	summarized, err := transcribed.WithSummary(Summary{Text: "greeting", ActionItems: items}, baseTime.Add(2*time.Second))
	require.NoError(t, err)
	require.Equal(t, domain.Summarized, summarized.State)
	require.Equal(t, []string{"say hi", "wave"}, summarized.Summary.ActionItems)
	require.NoError(t, summarized.Validate())

	// Mutating the caller's slice must not leak into the snapshot.
	items[0] = "changed"
	require.Equal(t, "say hi", summarized.Summary.ActionItems[0])

	require.Equal(t, domain.Raw, raw.State)
	require.Nil(t, raw.Transcript)
	require.Equal(t, domain.Transcribed, transcribed.State)
	require.Nil(t, transcribed.Summary)

	require.Equal(t, raw.ID, summarized.ID)
	require.Equal(t, raw.AudioLocator, summarized.AudioLocator)
	require.Equal(t, raw.CreatedAt, summarized.CreatedAt)
}

func TestMarkFailedKeepsFilledFields(t *testing.T) {
	raw := newRaw(t)

	failedRaw, err := raw.MarkFailed(baseTime.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, domain.Failed, failedRaw.State)
	require.Nil(t, failedRaw.Transcript)
	require.NoError(t, failedRaw.Validate())

	transcribed, err := raw.WithTranscript("text", baseTime.Add(time.Second))
	require.NoError(t, err)
	failedTranscribed, err := transcribed.MarkFailed(baseTime.Add(2 * time.Second))
	require.NoError(t, err)
	require.Equal(t, "text", failedTranscribed.TranscriptText())
	require.Nil(t, failedTranscribed.Summary)
	require.NoError(t, failedTranscribed.Validate())
}

func TestIllegalTransitionsRejected(t *testing.T) {
	raw := newRaw(t)

	_, err := raw.WithSummary(Summary{Text: "s"}, baseTime)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	transcribed, err := raw.WithTranscript("t", baseTime)
	require.NoError(t, err)
	summarized, err := transcribed.WithSummary(Summary{Text: "s"}, baseTime)
	require.NoError(t, err)

	_, err = summarized.MarkFailed(baseTime)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	failed, err := raw.MarkFailed(baseTime)
	require.NoError(t, err)
	_, err = failed.WithTranscript("late", baseTime)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdatedAtNeverGoesBackwards(t *testing.T) {
	raw := newRaw(t)

	next, err := raw.WithTranscript("t", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, baseTime, next.UpdatedAt)
	require.False(t, next.UpdatedAt.Before(next.CreatedAt))
}

func TestWithSummaryNilActionItemsBecomesEmpty(t *testing.T) {
	transcribed, err := newRaw(t).WithTranscript("t", baseTime)
	require.NoError(t, err)

	summarized, err := transcribed.WithSummary(Summary{Text: "s"}, baseTime)
	require.NoError(t, err)
	require.NotNil(t, summarized.Summary.ActionItems)
	require.Empty(t, summarized.Summary.ActionItems)
}

func TestValidate_RejectsInconsistentRecords(t *testing.T) {
	text := "t"
	cases := []struct {
		name   string
		mutate func(m *MeetingRecord)
	}{
		{name: "nil id", mutate: func(m *MeetingRecord) { m.ID = uuid.Nil }},
		{name: "empty locator", mutate: func(m *MeetingRecord) { m.AudioLocator = "" }},
		{name: "unknown state", mutate: func(m *MeetingRecord) { m.State = "ready" }},
		{name: "raw with transcript", mutate: func(m *MeetingRecord) { m.Transcript = &text }},
		{name: "transcribed without transcript", mutate: func(m *MeetingRecord) { m.State = domain.Transcribed }},
		{name: "summarized without summary", mutate: func(m *MeetingRecord) {
			m.State = domain.Summarized
			m.Transcript = &text
		}},
		{name: "failed with summary", mutate: func(m *MeetingRecord) {
			m.State = domain.Failed
			m.Summary = &Summary{Text: "s"}
		}},
		{name: "updated before created", mutate: func(m *MeetingRecord) { m.UpdatedAt = m.CreatedAt.Add(-time.Second) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newRaw(t)
			tc.mutate(&m)
			require.ErrorIs(t, m.Validate(), ErrInvalidArgument)
		})
	}
}

func TestMeetingStateChanged_JSON(t *testing.T) {
	ev := NewMeetingStateChanged(testID, domain.Raw, domain.Transcribed, baseTime)
	require.Equal(t, "MeetingStateChanged", ev.EventType())
	require.Equal(t, testID, ev.AggregateID())

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, testID.String(), decoded["meeting_id"])
	require.Equal(t, "RAW", decoded["from"])
	require.Equal(t, "TRANSCRIBED", decoded["to"])
	require.Equal(t, ev.EventID().String(), decoded["event_id"])
}
