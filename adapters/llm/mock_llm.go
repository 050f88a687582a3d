package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

// MockLLM is a canned-response implementation for development without any
// provider credentials.
type MockLLM struct {
	logger *zap.Logger
}

var _ repositories.LanguageModel = (*MockLLM)(nil)

func NewMockLLM(logger *zap.Logger) *MockLLM {
	return &MockLLM{logger: logger}
}

func (m *MockLLM) Configured() bool {
	return true
}

func (m *MockLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.logger.Debug("mock completion requested", zap.Int("prompt_length", len(userPrompt)))
	return fmt.Sprintf("Mock response to a %d character prompt.", len(userPrompt)), nil
}

func (m *MockLLM) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	reply, err := m.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if onToken != nil {
		onToken(reply)
	}
	return reply, nil
}
