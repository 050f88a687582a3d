// Package llm provides reasoning-service adapters behind the
// repositories.LanguageModel contract.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
	"github.com/satriahrh/rapat/internal/streaming"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements LanguageModel against the chat completions API.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.LanguageModel = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI adapter. The transport default timeout is
// left in place for streaming requests.
func NewOpenAI(apiKey, model string, logger *zap.Logger) *OpenAI {
	return &OpenAI{
		apiKey:     apiKey,
		model:      model,
		baseURL:    openAIChatURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Configured reports whether an API key is present.
func (o *OpenAI) Configured() bool {
	return o.apiKey != ""
}

// Complete sends a non-streaming chat request.
func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !o.Configured() {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	resp, err := o.send(ctx, chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Stream sends a streaming chat request and feeds the SSE body through a
// streaming.Consumer, delivering fragments to onToken in arrival order and
// returning the aggregated reply.
func (o *OpenAI) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	if !o.Configured() {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	resp, err := o.send(ctx, chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: true,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	consumer := streaming.NewConsumer(decodeChatStreamFrame, onToken)
	return consumer.Consume(resp.Body)
}

// decodeChatStreamFrame maps a chat-completions SSE payload onto the
// consumer contract: delta content becomes the fragment, a finish reason
// becomes the completion marker.
func decodeChatStreamFrame(payload []byte) (string, bool, error) {
	var chunk chatStreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false, err
	}
	var token string
	var done bool
	for _, choice := range chunk.Choices {
		token += choice.Delta.Content
		if choice.FinishReason != nil {
			done = true
		}
	}
	return token, done, nil
}

func (o *OpenAI) send(ctx context.Context, request chatRequest) (*http.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, string(detail))
	}
	return resp, nil
}
