// Package config holds runtime configuration. The Store guards the live
// config with its own lock; callers always snapshot a copy before crossing
// a suspension point or handing values to a detached task.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Provider selects the reasoning backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "gemini"
)

// Config is a plain value; copying it snapshots every field.
type Config struct {
	Provider     Provider `json:"llm_provider"`
	OpenAIAPIKey string   `json:"-"`
	OpenAIModel  string   `json:"openai_model"`
	OllamaURL    string   `json:"ollama_url"`
	OllamaModel  string   `json:"ollama_model"`
	GeminiAPIKey string   `json:"-"`
	STTProvider  string   `json:"stt_provider"`
	WhisperModel string   `json:"whisper_model"`

	DetectionInterval     time.Duration `json:"detection_interval"`
	TranscriptionInterval time.Duration `json:"transcription_interval"`
	SuggestionInterval    time.Duration `json:"suggestion_interval"`

	JWTSecret string `json:"-"`
	Port      string `json:"port"`
}

// Load builds a Config from environment variables with the same defaults
// the desktop app shipped with.
func Load() Config {
	return Config{
		Provider:              Provider(envOr("LLM_PROVIDER", string(ProviderOpenAI))),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           envOr("OPENAI_MODEL", "gpt-4o"),
		OllamaURL:             envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:           envOr("OLLAMA_MODEL", "llama3"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		STTProvider:           envOr("STT_PROVIDER", "openai"),
		WhisperModel:          envOr("WHISPER_MODEL", "whisper-1"),
		DetectionInterval:     envDurationSeconds("DETECTION_INTERVAL_SECS", 5*time.Second),
		TranscriptionInterval: envDurationSeconds("TRANSCRIPTION_INTERVAL_SECS", 4*time.Second),
		SuggestionInterval:    envDurationSeconds("SUGGESTION_INTERVAL_SECS", 5*time.Second),
		JWTSecret:             envOr("JWT_SECRET", "rapat-dev-secret"),
		Port:                  envOr("PORT", "8080"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// Store guards the live configuration.
type Store struct {
	mu  sync.Mutex
	cfg Config
}

// NewStore creates a store holding cfg.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update replaces the current configuration.
func (s *Store) Update(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}
