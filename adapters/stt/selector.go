package stt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/domain/repositories"
)

// Selector resolves the speech backend from the live configuration on
// every call, so a config update takes effect on the next transcription
// without restarting the process. The resolved backend is cached until any
// of the fields it was built from change.
type Selector struct {
	store  *config.Store
	logger *zap.Logger

	mu      sync.Mutex
	key     backendKey
	backend repositories.Transcriber

	build func(config.Config, *zap.Logger) repositories.Transcriber
}

var _ repositories.Transcriber = (*Selector)(nil)

type backendKey struct {
	provider     string
	openAIKey    string
	whisperModel string
}

// NewSelector creates a selector reading provider choice and credentials
// from store.
func NewSelector(store *config.Store, logger *zap.Logger) *Selector {
	return &Selector{store: store, logger: logger, build: buildBackend}
}

func (s *Selector) resolve() repositories.Transcriber {
	cfg := s.store.Snapshot()
	key := backendKey{
		provider:     cfg.STTProvider,
		openAIKey:    cfg.OpenAIAPIKey,
		whisperModel: cfg.WhisperModel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil || key != s.key {
		if closer, ok := s.backend.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn("failed to close previous speech backend", zap.Error(err))
			}
		}
		s.backend = s.build(cfg, s.logger)
		s.key = key
		s.logger.Info("speech backend selected", zap.String("provider", cfg.STTProvider))
	}
	return s.backend
}

func (s *Selector) Configured() bool {
	return s.resolve().Configured()
}

func (s *Selector) Transcribe(ctx context.Context, wav []byte) (string, error) {
	return s.resolve().Transcribe(ctx, wav)
}

// buildBackend constructs the provider the configuration names, falling
// back to the mock when the chosen provider has no credentials.
func buildBackend(cfg config.Config, logger *zap.Logger) repositories.Transcriber {
	switch cfg.STTProvider {
	case "google":
		google, err := NewGoogleSpeech(context.Background(), audio.DefaultSampleRate, logger)
		if err != nil {
			logger.Warn("Google Speech unavailable, using mock transcriber", zap.Error(err))
			return NewMockTranscriber(logger)
		}
		return google
	case "mock":
		return NewMockTranscriber(logger)
	default:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, using mock transcriber")
			return NewMockTranscriber(logger)
		}
		return NewWhisper(cfg.OpenAIAPIKey, cfg.WhisperModel, logger)
	}
}
