// Package capture owns the lifecycle of the two audio sources: the
// microphone (hardware-driven callback) and the system/loopback audio
// (dedicated polling goroutine). Each feeds its own audio.Buffer.
package capture

import "errors"

var (
	// ErrAlreadyCapturing is returned when starting a controller that is
	// already running. Callers that start best-effort treat it as a no-op.
	ErrAlreadyCapturing = errors.New("capture already active")
	// ErrNotCapturing is returned when stopping an idle controller.
	ErrNotCapturing = errors.New("capture not active")
	// ErrPermissionDenied is returned when the platform capture
	// permission has not been granted.
	ErrPermissionDenied = errors.New("system audio capture permission not granted")
)

// SampleFormat identifies the encoding of raw frame bytes delivered by a
// system audio source.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	// FormatF32 is little-endian 32-bit float PCM, the expected encoding.
	FormatF32
	// FormatS16 is little-endian signed 16-bit PCM.
	FormatS16
)

// SystemSource is the platform collaborator producing system/loopback audio
// frames. NextFrame blocks until a frame is available or the source fails.
type SystemSource interface {
	// HasPermission reports whether the platform capture permission is
	// granted.
	HasPermission() bool
	// SampleRate is the rate of the frames the source will deliver.
	SampleRate() int
	// Start begins frame production.
	Start() error
	// NextFrame returns the raw bytes and encoding of the next frame.
	NextFrame() ([]byte, SampleFormat, error)
	// Close releases the source once polling has finished.
	Close()
}
