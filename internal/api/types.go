package api

import "time"

// CreateSessionRequest represents the request payload for manual session
// creation.
type CreateSessionRequest struct {
	Title   string `json:"title"`
	Purpose string `json:"purpose"`
	Context string `json:"context"`
}

// AppendTranscriptRequest represents a UI-submitted transcript entry. The
// speaker defaults to "You" when omitted.
type AppendTranscriptRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TokenRequest represents the request payload for UI client token issuance.
type TokenRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

// TokenResponse represents the response payload for token issuance.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// CaptureStatusResponse reports the state of both capture paths.
type CaptureStatusResponse struct {
	MicrophoneActive bool    `json:"microphone_active"`
	SystemActive     bool    `json:"system_active"`
	BufferedSamples  int     `json:"buffered_samples"`
	BufferedSeconds  float64 `json:"buffered_seconds"`
	BufferSampleRate int     `json:"buffer_sample_rate"`
}

// SummaryResponse wraps a generated meeting summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
