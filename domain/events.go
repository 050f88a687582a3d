// Package domain holds the entities, collaborator contracts, and named
// events shared across the engine.
package domain

// Named events emitted by the engine. UI consumers subscribe externally
// (websocket hub) and receive the payload described next to each constant.
const (
	// EventSessionAutoStarted carries the newly created session.
	EventSessionAutoStarted = "session-auto-started"
	// EventMeetingDetected carries {"title": string|null} whenever the
	// detected meeting window changes, including to/from none.
	EventMeetingDetected = "meeting-detected"
	// EventTranscriptionChunk carries {"speaker": string, "text": string}.
	EventTranscriptionChunk = "transcription-chunk"
	// EventStreamStart marks the start of one streaming LLM request.
	EventStreamStart = "llm-stream-start"
	// EventToken carries one incremental text fragment, in arrival order.
	EventToken = "llm-token"
	// EventStreamEnd carries the full aggregated response text.
	EventStreamEnd = "llm-stream-end"
)

// Emitter is the notification sink the engine publishes events into.
type Emitter interface {
	Emit(event string, payload interface{})
}
