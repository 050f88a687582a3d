// Package audio provides the sample accumulator shared between capture
// callbacks and the transcription loop, plus the WAV clip encoder.
package audio

import (
	"errors"
	"sync"
	"time"
)

// ErrEmptyBuffer is returned by drain operations when no samples are
// buffered. It is a benign skip-tick condition, not a failure.
var ErrEmptyBuffer = errors.New("no audio data buffered")

// DefaultSampleRate is used until a capture start records the device rate.
const DefaultSampleRate = 44100

// Buffer accumulates normalized float32 samples (range [-1.0, 1.0]) from a
// single capture source. Append runs on the capture callback or polling
// thread; drains run on the cooperative loops. All access is guarded by the
// buffer's own mutex and nothing slow ever happens under it.
type Buffer struct {
	mu         sync.Mutex
	samples    []float32
	sampleRate int
}

// NewBuffer creates an empty buffer at the default sample rate.
func NewBuffer() *Buffer {
	return &Buffer{
		samples:    make([]float32, 0, DefaultSampleRate*2),
		sampleRate: DefaultSampleRate,
	}
}

// Reset clears the buffer and records the sample rate of the capture that
// is about to start. The rate is shared by all subsequent drains.
func (b *Buffer) Reset(sampleRate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = make([]float32, 0, sampleRate*2)
	if sampleRate > 0 {
		b.sampleRate = sampleRate
	}
}

// Append adds samples to the buffer. O(1) amortized; safe to call from a
// realtime audio callback.
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// Samples returns a copy of the accumulated samples without clearing them.
func (b *Buffer) Samples() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the current number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// SampleRate returns the rate recorded at the last Reset.
func (b *Buffer) SampleRate() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sampleRate
}

// Duration returns the buffered audio duration at the recorded rate.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(b.samples)) / float64(b.sampleRate) * float64(time.Second))
}

// Drain atomically removes and returns every buffered sample, leaving the
// buffer empty. The take-and-swap happens as a single step under the lock,
// so no sample is ever delivered to two drains or lost between read and
// clear under concurrent appends.
func (b *Buffer) Drain() ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) == 0 {
		return nil, ErrEmptyBuffer
	}
	drained := b.samples
	b.samples = make([]float32, 0, cap(drained))
	return drained, nil
}

// DrainWAV atomically drains the buffer and encodes the samples as a mono
// 16-bit PCM WAV clip at the recorded sample rate. The samples are consumed
// even when encoding fails, so a broken clip never grows the buffer through
// retries.
func (b *Buffer) DrainWAV() ([]byte, error) {
	b.mu.Lock()
	if len(b.samples) == 0 {
		b.mu.Unlock()
		return nil, ErrEmptyBuffer
	}
	drained := b.samples
	b.samples = make([]float32, 0, cap(drained))
	rate := b.sampleRate
	b.mu.Unlock()

	return EncodeWAV(drained, rate)
}
