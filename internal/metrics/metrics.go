// Package metrics registers Prometheus instrumentation for the live
// session engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the session engine.
type Metrics struct {
	// Detection metrics
	DetectionTicks   prometheus.Counter
	MeetingsDetected prometheus.Counter
	SessionsStarted  prometheus.Counter
	SessionsEnded    prometheus.Counter

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	EmptyBufferSkips       prometheus.Counter

	// Suggestion metrics
	SuggestionRequests  prometheus.Counter
	SuggestionsProduced prometheus.Counter
	SuggestionFailures  prometheus.Counter
	TokensStreamed      prometheus.Counter

	// Capture metrics
	CaptureSamples prometheus.Counter
}

// New creates and registers all engine metrics with reg, or with the
// default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DetectionTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_detection_ticks_total",
			Help: "Total number of meeting detection scans",
		}),
		MeetingsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_meetings_detected_total",
			Help: "Total number of meeting window detections",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_sessions_ended_total",
			Help: "Total number of sessions ended",
		}),
		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_transcription_requests_total",
			Help: "Total number of transcription requests dispatched",
		}),
		TranscriptionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_transcription_successes_total",
			Help: "Total number of transcriptions appended to the transcript",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		EmptyBufferSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_empty_buffer_skips_total",
			Help: "Total number of transcription ticks skipped on an empty buffer",
		}),
		SuggestionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_suggestion_requests_total",
			Help: "Total number of suggestion requests dispatched",
		}),
		SuggestionsProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_suggestions_produced_total",
			Help: "Total number of suggestions attached to the session",
		}),
		SuggestionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_suggestion_failures_total",
			Help: "Total number of failed suggestion requests",
		}),
		TokensStreamed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_tokens_streamed_total",
			Help: "Total number of suggestion token fragments streamed",
		}),
		CaptureSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapat_capture_samples_total",
			Help: "Total number of audio samples appended to capture buffers",
		}),
	}
}
