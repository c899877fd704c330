// Package gemini summarizes transcripts with Google's Gemini models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/romariotrain/meeting-pipeline/internal/ai"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint.
	BaseURL           string
	RequestsPerSecond float64
}

type Summarizer struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

func New(ctx context.Context, cfg Config) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Summarizer{
		client:  client,
		model:   cfg.Model,
		limiter: ai.NewLimiter(cfg.RequestsPerSecond),
	}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (models.Summary, error) {
	if err := ai.Wait(ctx, s.limiter); err != nil {
		return models.Summary{}, err
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ai.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		ResponseMIMEType:  "application/json",
	}
	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(ai.SummaryPrompt(transcript)), cfg)
	if err != nil {
		return models.Summary{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := responseText(result)
	if text == "" {
		return models.Summary{}, fmt.Errorf("gemini: %w: empty response", ai.ErrMalformedResponse)
	}

	summary, err := ai.ParseSummary(text)
	if err != nil {
		return models.Summary{}, fmt.Errorf("gemini: %w", err)
	}
	return summary, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
