package repositories

import "context"

// LanguageModel abstracts any chat/LLM provider used for suggestions and
// summaries.
type LanguageModel interface {
	// Configured reports whether the provider has a usable credential.
	// Loops skip dispatch entirely when this is false.
	Configured() bool
	// Complete sends a single system+user exchange and returns the reply.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Stream sends a single system+user exchange and delivers incremental
	// text fragments through onToken in arrival order, returning the full
	// aggregated reply.
	Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error)
}
