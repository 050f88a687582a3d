package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/domain"
)

const transcribeTimeout = 30 * time.Second

// micSpeaker labels transcript entries produced from the microphone path.
const micSpeaker = "You"

func (e *Engine) transcribeTick(ctx context.Context) {
	if _, active := e.sessions.Snapshot(); !active {
		return
	}

	// Drain before the configuration check so the buffer never grows
	// unbounded while the transcriber is unconfigured.
	wav, err := e.micBuffer.DrainWAV()
	if err != nil {
		if errors.Is(err, audio.ErrEmptyBuffer) {
			e.metrics.EmptyBufferSkips.Inc()
			return
		}
		e.logger.Warn("audio encode failed", zap.Error(err))
		return
	}

	if !e.transcriber.Configured() {
		return
	}

	e.metrics.TranscriptionRequests.Inc()
	go e.transcribeClip(wav)
}

// transcribeClip runs one detached transcription request; the loop never
// waits for it.
func (e *Engine) transcribeClip(wav []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	text, err := e.transcriber.Transcribe(ctx, wav)
	if err != nil {
		e.metrics.TranscriptionFailures.Inc()
		e.logger.Warn("transcription failed", zap.Error(err))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	// The session may have ended while the request was in flight.
	entry, err := e.sessions.AppendTranscript(micSpeaker, text)
	if err != nil {
		e.logger.Debug("transcription arrived after session end", zap.Error(err))
		return
	}

	e.metrics.TranscriptionSuccesses.Inc()
	e.emit(domain.EventTranscriptionChunk, entry)
}
