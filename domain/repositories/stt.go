package repositories

import "context"

// Transcriber abstracts speech recognition services. Input is a complete
// mono 16-bit WAV clip produced by draining an audio buffer.
type Transcriber interface {
	// Configured reports whether the provider has a usable credential.
	Configured() bool
	// Transcribe converts the WAV clip to text.
	Transcribe(ctx context.Context, wav []byte) (string, error)
}
