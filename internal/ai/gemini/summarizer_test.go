package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/romariotrain/meeting-pipeline/internal/ai"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestResponseText(t *testing.T) {
	require.Empty(t, responseText(nil))
	require.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"summary":`}, {Text: `"greeting"}`}}},
		}},
	}
	require.Equal(t, `{"summary":"greeting"}`, responseText(resp))
}

func newTestSummarizer(t *testing.T, reply string) *Summarizer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "hello world")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return s
}

func TestSummarize(t *testing.T) {
	s := newTestSummarizer(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":\"greeting\",\"action_items\":[\"say hi\"]}"}]}}]}`)

	got, err := s.Summarize(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, "greeting", got.Text)
	require.Equal(t, []string{"say hi"}, got.ActionItems)
}

func TestSummarize_EmptyCandidates(t *testing.T) {
	s := newTestSummarizer(t, `{"candidates":[]}`)

	_, err := s.Summarize(context.Background(), "hello world")
	require.ErrorIs(t, err, ai.ErrMalformedResponse)
}
