package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

// Ollama implements LanguageModel against a local Ollama server.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.LanguageModel = (*Ollama)(nil)

// NewOllama creates an Ollama adapter pointing at baseURL, typically
// http://localhost:11434.
func NewOllama(baseURL, model string, logger *zap.Logger) *Ollama {
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Configured reports whether a server URL is present. Ollama needs no
// credential, only a reachable endpoint.
func (o *Ollama) Configured() bool {
	return o.baseURL != ""
}

// Complete sends a non-streaming chat request.
func (o *Ollama) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !o.Configured() {
		return "", fmt.Errorf("Ollama URL not configured")
	}

	body, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama API error (%d): %s", resp.StatusCode, string(detail))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}
	return parsed.Message.Content, nil
}

// Stream answers the full completion as a single fragment. Ollama streams
// newline-delimited JSON rather than SSE, so the reply is fetched whole and
// delivered to onToken once.
func (o *Ollama) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	reply, err := o.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if onToken != nil && reply != "" {
		onToken(reply)
	}
	return reply, nil
}
