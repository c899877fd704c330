// Package ai holds the pieces shared by the transcription and summarization
// adapters: the summary prompt, response parsing and request throttling.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

const SystemPrompt = "You are a helpful assistant that summarizes meetings."

const summaryPrompt = `You are an AI assistant that summarizes meeting transcriptions.

Given the following meeting transcription, provide:
1. A concise summary (2-3 paragraphs)
2. A list of action items (if any)

Format your response as JSON with keys "summary" and "action_items" (array of strings).

Transcription:
%s

Response (JSON only):`

// SummaryPrompt embeds the transcript into the summarization instruction.
func SummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPrompt, transcript)
}

var ErrMalformedResponse = errors.New("malformed model response")

type summaryPayload struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"action_items"`
}

// ParseSummary decodes a {"summary", "action_items"} JSON document, tolerating
// a surrounding markdown code fence. Blank action items are dropped.
func ParseSummary(raw string) (models.Summary, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```")
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		}
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var p summaryPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return models.Summary{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return models.Summary{}, fmt.Errorf("%w: empty summary", ErrMalformedResponse)
	}

	items := make([]string, 0, len(p.ActionItems))
	for _, it := range p.ActionItems {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return models.Summary{Text: strings.TrimSpace(p.Summary), ActionItems: items}, nil
}

// StatusError reports a non-2xx answer from a remote capability.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.Code, e.Body)
}

// NewLimiter returns a limiter allowing rps requests per second. A
// non-positive rps disables throttling.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the limiter admits one request or ctx ends.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
