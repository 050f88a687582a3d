package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

// MockTranscriber is a placeholder implementation for development without
// speech credentials.
type MockTranscriber struct {
	logger *zap.Logger
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)

func NewMockTranscriber(logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{logger: logger}
}

func (m *MockTranscriber) Configured() bool {
	return true
}

// Transcribe fabricates text sized to the clip, so downstream loops see
// varied transcript growth during development.
func (m *MockTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	m.logger.Debug("mock transcription requested", zap.Int("bytes", len(wav)))

	if len(wav) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	switch {
	case len(wav) > 500000:
		return "Let's walk through the quarterly numbers before we decide on the hiring plan.", nil
	case len(wav) > 100000:
		return "Can we circle back to the timeline question?", nil
	default:
		return "Okay.", nil
	}
}
