package capture

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
)

const micSampleRate = 44100

// Microphone captures the default input device into its buffer. Samples
// arrive on the device's realtime data callback, which only ever touches
// the buffer's own append lock.
type Microphone struct {
	logger  *zap.Logger
	buffer  *audio.Buffer
	samples prometheus.Counter

	mu        sync.Mutex
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	capturing bool
}

// NewMicrophone creates an idle microphone controller feeding buffer.
func NewMicrophone(buffer *audio.Buffer, logger *zap.Logger) *Microphone {
	return &Microphone{
		logger: logger,
		buffer: buffer,
	}
}

// SetSampleCounter attaches a counter incremented per appended sample.
// Must be called before Start.
func (m *Microphone) SetSampleCounter(c prometheus.Counter) {
	m.samples = c
}

// Start selects the default input device, resets the buffer at the device
// rate, and begins appending decoded samples on every callback invocation.
func (m *Microphone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		return ErrAlreadyCapturing
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = micSampleRate
	deviceConfig.Alsa.NoMMap = 1

	m.buffer.Reset(micSampleRate)
	buffer := m.buffer
	samples := m.samples

	callbacks := malgo.DeviceCallbacks{
		// Realtime audio thread: decode, append, count, nothing else.
		Data: func(_, input []byte, _ uint32) {
			decoded := DecodeF32LE(input)
			buffer.Append(decoded)
			if samples != nil {
				samples.Add(float64(len(decoded)))
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to init input device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start input device: %w", err)
	}

	m.ctx = ctx
	m.device = device
	m.capturing = true

	m.logger.Info("Microphone capture started", zap.Int("sampleRate", micSampleRate))
	return nil
}

// Stop tears down the device stream, halting further callbacks, and
// returns the accumulated samples without clearing the buffer.
func (m *Microphone) Stop() ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.capturing {
		return nil, ErrNotCapturing
	}

	m.device.Stop()
	m.device.Uninit()
	m.ctx.Uninit()
	m.ctx.Free()
	m.device = nil
	m.ctx = nil
	m.capturing = false

	samples := m.buffer.Samples()
	m.logger.Info("Microphone capture stopped", zap.Int("samples", len(samples)))
	return samples, nil
}

// Capturing reports whether the device stream is running.
func (m *Microphone) Capturing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturing
}
