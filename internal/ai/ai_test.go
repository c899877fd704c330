package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		items   []string
		wantErr bool
	}{
		{
			name:  "plain json",
			raw:   `{"summary":"greeting","action_items":["say hi"]}`,
			want:  "greeting",
			items: []string{"say hi"},
		},
		{
			name:  "fenced json",
			raw:   "```json\n{\"summary\":\"greeting\",\"action_items\":[\"say hi\", \"  \"]}\n```",
			want:  "greeting",
			items: []string{"say hi"},
		},
		{
			name:  "missing action items",
			raw:   `{"summary":"short call"}`,
			want:  "short call",
			items: []string{},
		},
		{name: "not json", raw: "Here is your summary", wantErr: true},
		{name: "empty summary", raw: `{"summary":"  ","action_items":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSummary(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Text)
			require.Equal(t, tt.items, got.ActionItems)
		})
	}
}

func TestSummaryPrompt_EmbedsTranscript(t *testing.T) {
	p := SummaryPrompt("hello world")
	require.Contains(t, p, "hello world")
	require.Contains(t, p, `"action_items"`)
}

func TestNewLimiter(t *testing.T) {
	ctx := context.Background()

	unlimited := NewLimiter(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, Wait(ctx, unlimited))
	}

	slow := NewLimiter(1)
	require.NoError(t, Wait(ctx, slow))

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.Error(t, Wait(short, slow))
}
