package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

const loopbackSampleRate = 44100

// frameQueueSize bounds how many callback frames can wait for the poller.
// The realtime callback never blocks; overflow frames are dropped.
const frameQueueSize = 64

// Loopback is a SystemSource backed by the platform's loopback device,
// hearing whatever the machine plays. Loopback capture is only available
// on backends that expose it (WASAPI most notably); HasPermission reports
// whether the device could be opened at all.
type Loopback struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	frames chan []byte
	opened bool
}

var _ SystemSource = (*Loopback)(nil)

func NewLoopback() *Loopback {
	return &Loopback{}
}

// HasPermission probes whether a loopback device can be initialized. The
// probe is torn down immediately; Start opens its own device.
func (l *Loopback) HasPermission() bool {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return false
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = loopbackSampleRate

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{})
	if err != nil {
		return false
	}
	device.Uninit()
	return true
}

// SampleRate reports the capture rate frames are delivered at.
func (l *Loopback) SampleRate() int {
	return loopbackSampleRate
}

// Start opens the loopback device and begins queueing frames for NextFrame.
func (l *Loopback) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opened {
		return ErrAlreadyCapturing
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = loopbackSampleRate
	deviceConfig.Alsa.NoMMap = 1

	frames := make(chan []byte, frameQueueSize)

	callbacks := malgo.DeviceCallbacks{
		// Realtime audio thread: copy and hand off, never block.
		Data: func(_, input []byte, _ uint32) {
			frame := make([]byte, len(input))
			copy(frame, input)
			select {
			case frames <- frame:
			default:
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to init loopback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start loopback device: %w", err)
	}

	l.ctx = ctx
	l.device = device
	l.frames = frames
	l.opened = true
	return nil
}

// NextFrame returns the next queued frame, or an empty frame after a short
// wait so the polling loop can observe its cancellation flag. After Close it
// reports a terminal error, ending the polling loop.
func (l *Loopback) NextFrame() ([]byte, SampleFormat, error) {
	l.mu.Lock()
	frames := l.frames
	l.mu.Unlock()

	if frames == nil {
		return nil, FormatUnknown, fmt.Errorf("loopback source not started")
	}

	select {
	case frame, ok := <-frames:
		if !ok {
			return nil, FormatUnknown, fmt.Errorf("loopback source closed")
		}
		return frame, FormatF32, nil
	case <-time.After(50 * time.Millisecond):
		return nil, FormatF32, nil
	}
}

// Close stops the device stream and releases the frame queue.
func (l *Loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		return
	}

	l.device.Stop()
	l.device.Uninit()
	l.ctx.Uninit()
	l.ctx.Free()
	close(l.frames)
	l.device = nil
	l.ctx = nil
	l.frames = nil
	l.opened = false
}
