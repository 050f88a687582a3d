// Package engine runs the live session loops: meeting detection,
// transcription, and suggestion generation.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/capture"
	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/domain"
	"github.com/satriahrh/rapat/domain/repositories"
	"github.com/satriahrh/rapat/internal/metrics"
	"github.com/satriahrh/rapat/usecase"
)

// Engine owns the periodic loops around a live session. Each loop runs on
// its own ticker; slow network work is dispatched to detached goroutines so
// a tick never blocks the next.
type Engine struct {
	logger   *zap.Logger
	cfg      *config.Store
	sessions *usecase.SessionService

	microphone *capture.Microphone
	system     *capture.System
	micBuffer  *audio.Buffer

	windows     repositories.WindowLister
	transcriber repositories.Transcriber
	llm         repositories.LanguageModel
	emitter     domain.Emitter
	metrics     *metrics.Metrics

	// detection state, touched only by the detection loop
	lastTitle string

	// suggestion state; lastProcessed is touched only by the suggestion
	// loop, suggesting also by its detached workers
	lastProcessed int
	suggesting    atomic.Bool
}

// Options collects the engine's collaborators.
type Options struct {
	Logger      *zap.Logger
	Config      *config.Store
	Sessions    *usecase.SessionService
	Microphone  *capture.Microphone
	System      *capture.System
	MicBuffer   *audio.Buffer
	Windows     repositories.WindowLister
	Transcriber repositories.Transcriber
	LLM         repositories.LanguageModel
	Emitter     domain.Emitter
	Metrics     *metrics.Metrics
}

func New(opts Options) *Engine {
	return &Engine{
		logger:      opts.Logger,
		cfg:         opts.Config,
		sessions:    opts.Sessions,
		microphone:  opts.Microphone,
		system:      opts.System,
		micBuffer:   opts.MicBuffer,
		windows:     opts.Windows,
		transcriber: opts.Transcriber,
		llm:         opts.LLM,
		emitter:     opts.Emitter,
		metrics:     opts.Metrics,
	}
}

// Run starts the detection, transcription, and suggestion loops and blocks
// until ctx is cancelled. Detached workers started by a tick may still be
// finishing when Run returns.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.runLoop(ctx, "detection", func() time.Duration { return e.cfg.Snapshot().DetectionInterval }, e.detectTick)
	}()
	go func() {
		defer wg.Done()
		e.runLoop(ctx, "transcription", func() time.Duration { return e.cfg.Snapshot().TranscriptionInterval }, e.transcribeTick)
	}()
	go func() {
		defer wg.Done()
		e.runLoop(ctx, "suggestion", func() time.Duration { return e.cfg.Snapshot().SuggestionInterval }, e.suggestTick)
	}()
	wg.Wait()
}

// runLoop drives tick on the loop's interval, re-reading it after every
// tick so configuration updates take effect without a restart.
func (e *Engine) runLoop(ctx context.Context, name string, interval func() time.Duration, tick func(context.Context)) {
	current := interval()
	e.logger.Info("loop started", zap.String("loop", name), zap.Duration("interval", current))
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			tick(ctx)
			if next := interval(); next > 0 && next != current {
				e.logger.Info("loop interval updated",
					zap.String("loop", name),
					zap.Duration("interval", next))
				ticker.Reset(next)
				current = next
			}
		}
	}
}

// emit forwards an event when an emitter is attached.
func (e *Engine) emit(event string, payload interface{}) {
	if e.emitter != nil {
		e.emitter.Emit(event, payload)
	}
}
