// Package openai implements transcription (audio/transcriptions) and
// summarization (chat/completions) against the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/romariotrain/meeting-pipeline/internal/ai"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultSTTModel   = "whisper-1"
	DefaultChatModel  = "gpt-4o-mini"
	DefaultTimeout    = 10 * time.Minute
	maxErrorBodyBytes = 4 << 10
)

// Config holds configuration for the OpenAI client.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL can point at any OpenAI-compatible API.
	BaseURL string

	STTModel  string
	ChatModel string
	Timeout   time.Duration

	RequestsPerSecond float64
}

type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	sttModel  string
	chatModel string
	limiter   *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		sttModel:  cfg.STTModel,
		chatModel: cfg.ChatModel,
		limiter:   ai.NewLimiter(cfg.RequestsPerSecond),
	}, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, filenameHint string) (string, error) {
	if err := ai.Wait(ctx, c.limiter); err != nil {
		return "", err
	}

	name := filepath.Base(filenameHint)
	if filepath.Ext(name) == "" {
		name = "audio.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", c.sttModel); err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out transcriptionResponse
	if err := c.do(req, "openai transcribe", &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Summarize(ctx context.Context, transcript string) (models.Summary, error) {
	if err := ai.Wait(ctx, c.limiter); err != nil {
		return models.Summary{}, err
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: ai.SystemPrompt},
			{Role: "user", Content: ai.SummaryPrompt(transcript)},
		},
		Temperature:    0.3,
		MaxTokens:      1000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return models.Summary{}, fmt.Errorf("openai summarize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return models.Summary{}, fmt.Errorf("openai summarize: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out chatCompletionResponse
	if err := c.do(req, "openai summarize", &out); err != nil {
		return models.Summary{}, err
	}
	if len(out.Choices) == 0 {
		return models.Summary{}, fmt.Errorf("openai summarize: %w: no choices", ai.ErrMalformedResponse)
	}

	s, err := ai.ParseSummary(out.Choices[0].Message.Content)
	if err != nil {
		return models.Summary{}, fmt.Errorf("openai summarize: %w", err)
	}
	return s, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &ai.StatusError{Service: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
