package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/domain/repositories"
)

const geminiDefaultModel = "gemini-2.0-flash"

// Selector resolves the reasoning backend from the live configuration on
// every call, so a config update takes effect on the next dispatch without
// restarting the process. The resolved backend is cached until any of the
// fields it was built from change.
type Selector struct {
	store  *config.Store
	logger *zap.Logger

	mu      sync.Mutex
	key     backendKey
	backend repositories.LanguageModel

	build func(config.Config, *zap.Logger) repositories.LanguageModel
}

var _ repositories.LanguageModel = (*Selector)(nil)

type backendKey struct {
	provider    config.Provider
	openAIKey   string
	openAIModel string
	ollamaURL   string
	ollamaModel string
	geminiKey   string
}

// NewSelector creates a selector reading provider choice and credentials
// from store.
func NewSelector(store *config.Store, logger *zap.Logger) *Selector {
	return &Selector{store: store, logger: logger, build: buildBackend}
}

func (s *Selector) resolve() repositories.LanguageModel {
	cfg := s.store.Snapshot()
	key := backendKey{
		provider:    cfg.Provider,
		openAIKey:   cfg.OpenAIAPIKey,
		openAIModel: cfg.OpenAIModel,
		ollamaURL:   cfg.OllamaURL,
		ollamaModel: cfg.OllamaModel,
		geminiKey:   cfg.GeminiAPIKey,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil || key != s.key {
		s.backend = s.build(cfg, s.logger)
		s.key = key
		s.logger.Info("language model backend selected", zap.String("provider", string(cfg.Provider)))
	}
	return s.backend
}

func (s *Selector) Configured() bool {
	return s.resolve().Configured()
}

func (s *Selector) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.resolve().Complete(ctx, systemPrompt, userPrompt)
}

func (s *Selector) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	return s.resolve().Stream(ctx, systemPrompt, userPrompt, onToken)
}

// buildBackend constructs the provider the configuration names, falling
// back to the mock when the chosen provider has no credentials.
func buildBackend(cfg config.Config, logger *zap.Logger) repositories.LanguageModel {
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, logger)
	case config.ProviderGemini:
		gemini, err := NewGemini(context.Background(), cfg.GeminiAPIKey, geminiDefaultModel, logger)
		if err != nil {
			logger.Warn("Gemini unavailable, using mock language model", zap.Error(err))
			return NewMockLLM(logger)
		}
		return gemini
	default:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, using mock language model")
			return NewMockLLM(logger)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	}
}
