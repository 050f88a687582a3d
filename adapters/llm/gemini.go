package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/rapat/domain/repositories"
)

// Gemini implements LanguageModel using Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.LanguageModel = (*Gemini)(nil)

// NewGemini creates a Gemini adapter. A nil client (empty API key) yields an
// adapter that reports itself unconfigured rather than an error, so provider
// selection can fall through at call time.
func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return &Gemini{model: model, logger: logger}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Configured reports whether a client was constructed with an API key.
func (g *Gemini) Configured() bool {
	return g.client != nil
}

// Complete generates a single response for the prompt pair.
func (g *Gemini) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}

// Stream generates a response incrementally, delivering each chunk's text to
// onToken as it arrives.
func (g *Gemini) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
	}

	var full string
	for chunk, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return "", fmt.Errorf("Gemini stream failed: %w", err)
		}
		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		var text string
		for _, part := range chunk.Candidates[0].Content.Parts {
			text += part.Text
		}
		if text == "" {
			continue
		}
		full += text
		if onToken != nil {
			onToken(text)
		}
	}
	return full, nil
}
