// Package stt provides speech-to-text adapters behind the
// repositories.Transcriber contract.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

const whisperURL = "https://api.openai.com/v1/audio/transcriptions"

// Whisper implements Transcriber against the OpenAI audio transcriptions
// endpoint.
type Whisper struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*Whisper)(nil)

// NewWhisper creates a Whisper adapter. model is typically "whisper-1".
func NewWhisper(apiKey, model string, logger *zap.Logger) *Whisper {
	return &Whisper{
		apiKey:     apiKey,
		model:      model,
		baseURL:    whisperURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Configured reports whether an API key is present.
func (w *Whisper) Configured() bool {
	return w.apiKey != ""
}

// Transcribe uploads a WAV clip as multipart form data and returns the
// recognized text.
func (w *Whisper) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if !w.Configured() {
		return "", fmt.Errorf("Whisper API key not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.WriteField("model", w.model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Whisper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Whisper API error (%d): %s", resp.StatusCode, string(detail))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse Whisper response: %w", err)
	}
	return parsed.Text, nil
}
