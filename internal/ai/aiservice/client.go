// Package aiservice talks to the companion AI HTTP service that exposes
// /api/ai/v1/transcribe and /api/ai/v1/summarize.
package aiservice

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
	DefaultTimeout   = 10 * time.Minute
	transcribePath   = "/api/ai/v1/transcribe"
	summarizePath    = "/api/ai/v1/summarize"
	maxErrorBodySize = 4 << 10
)

type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("aiservice: base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: ai.NewLimiter(cfg.RequestsPerSecond),
	}, nil
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

// Transcribe uploads the recording as the multipart field "audio".
func (c *Client) Transcribe(ctx context.Context, audio []byte, filenameHint string) (string, error) {
	if err := ai.Wait(ctx, c.limiter); err != nil {
		return "", err
	}

	name := filepath.Base(filenameHint)
	if name == "." || name == "/" || name == "" {
		name = "audio.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", name)
	if err != nil {
		return "", fmt.Errorf("aiservice transcribe: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("aiservice transcribe: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("aiservice transcribe: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, &body)
	if err != nil {
		return "", fmt.Errorf("aiservice transcribe: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out transcribeResponse
	if err := c.do(req, "aiservice transcribe", &out); err != nil {
		return "", err
	}
	return out.Transcription, nil
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"action_items"`
}

func (c *Client) Summarize(ctx context.Context, transcript string) (models.Summary, error) {
	if err := ai.Wait(ctx, c.limiter); err != nil {
		return models.Summary{}, err
	}

	payload, err := json.Marshal(summarizeRequest{Text: transcript})
	if err != nil {
		return models.Summary{}, fmt.Errorf("aiservice summarize: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+summarizePath, bytes.NewReader(payload))
	if err != nil {
		return models.Summary{}, fmt.Errorf("aiservice summarize: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out summarizeResponse
	if err := c.do(req, "aiservice summarize", &out); err != nil {
		return models.Summary{}, err
	}

	items := out.ActionItems
	if items == nil {
		items = []string{}
	}
	return models.Summary{Text: out.Summary, ActionItems: items}, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &ai.StatusError{Service: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
