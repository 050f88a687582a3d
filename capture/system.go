package capture

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
)

// System captures loopback audio by polling a SystemSource on a dedicated
// goroutine. The poller re-checks a shared cancellation flag each
// iteration; Stop sets the flag and joins the poller, guaranteeing no
// sample writes happen after Stop returns.
type System struct {
	logger  *zap.Logger
	buffer  *audio.Buffer
	source  SystemSource
	samples prometheus.Counter

	mu      sync.Mutex
	stop    atomic.Bool
	done    chan struct{}
	running bool
}

// NewSystem creates an idle system-audio controller feeding buffer from
// source.
func NewSystem(source SystemSource, buffer *audio.Buffer, logger *zap.Logger) *System {
	return &System{
		logger: logger,
		buffer: buffer,
		source: source,
	}
}

// SetSampleCounter attaches a counter incremented per appended sample.
// Must be called before Start.
func (s *System) SetSampleCounter(c prometheus.Counter) {
	s.samples = c
}

// Start checks the platform permission, resets the buffer at the source
// rate, and spawns the frame-polling goroutine.
func (s *System) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyCapturing
	}
	if !s.source.HasPermission() {
		return ErrPermissionDenied
	}
	if err := s.source.Start(); err != nil {
		return err
	}

	s.buffer.Reset(s.source.SampleRate())
	s.stop.Store(false)
	s.done = make(chan struct{})
	s.running = true

	go s.poll(s.done)

	s.logger.Info("System audio capture started", zap.Int("sampleRate", s.source.SampleRate()))
	return nil
}

// poll pulls frames until cancelled or the source fails. Frames whose
// encoding has no decoder are skipped; a retrieval error terminates just
// this loop, leaving the buffer populated with whatever was captured.
func (s *System) poll(done chan struct{}) {
	defer close(done)

	for !s.stop.Load() {
		data, format, err := s.source.NextFrame()
		if err != nil {
			s.logger.Error("Error getting next audio frame", zap.Error(err))
			return
		}

		var decoded []float32
		switch format {
		case FormatF32:
			decoded = DecodeF32LE(data)
		case FormatS16:
			decoded = DecodeS16LE(data)
		default:
			continue
		}
		if len(decoded) == 0 {
			continue
		}
		s.buffer.Append(decoded)
		if s.samples != nil {
			s.samples.Add(float64(len(decoded)))
		}
	}
	s.logger.Info("System audio polling loop ended")
}

// Stop signals cancellation, blocks until the poller has observed it and
// exited, then returns the buffer contents. It may block the caller and
// must be issued from a context that tolerates blocking.
func (s *System) Stop() ([]float32, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrNotCapturing
	}
	done := s.done
	s.running = false
	s.done = nil
	s.mu.Unlock()

	s.stop.Store(true)
	<-done
	s.source.Close()

	samples := s.buffer.Samples()
	s.logger.Info("System audio capture stopped", zap.Int("samples", len(samples)))
	return samples, nil
}

// Capturing reports whether the polling goroutine is running.
func (s *System) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
