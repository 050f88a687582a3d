package entities

import "time"

// SessionStatus represents the lifecycle status of a session
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusPaused SessionStatus = "paused"
	SessionStatusEnded  SessionStatus = "ended"
)

// TranscriptEntry is one timestamped utterance in a session transcript.
// Entries are append-only and never edited or reordered after insertion.
type TranscriptEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
}

// Session represents one tracked meeting/interview interval together with
// its transcript and derived artifacts (suggestions, summary).
type Session struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Status      SessionStatus     `json:"status"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Purpose     string            `json:"purpose,omitempty"`
	Context     string            `json:"context,omitempty"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Suggestions []string          `json:"suggestions"`
	Summary     string            `json:"summary,omitempty"`
}

// Clone returns a deep copy of the session. Copies are handed to callers so
// the live session can keep mutating without sharing slices.
func (s *Session) Clone() Session {
	out := *s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.Transcript = make([]TranscriptEntry, len(s.Transcript))
	copy(out.Transcript, s.Transcript)
	out.Suggestions = make([]string, len(s.Suggestions))
	copy(out.Suggestions, s.Suggestions)
	return out
}

// TranscriptTail returns up to the last n transcript entries in
// chronological order.
func (s *Session) TranscriptTail(n int) []TranscriptEntry {
	if n <= 0 || len(s.Transcript) == 0 {
		return nil
	}
	start := len(s.Transcript) - n
	if start < 0 {
		start = 0
	}
	tail := make([]TranscriptEntry, len(s.Transcript)-start)
	copy(tail, s.Transcript[start:])
	return tail
}

// IsEnded reports whether the session has reached its terminal state.
// Ended sessions accept no further transcript, suggestion, or summary writes.
func (s *Session) IsEnded() bool {
	return s.Status == SessionStatusEnded
}
