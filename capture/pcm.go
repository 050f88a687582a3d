package capture

import (
	"encoding/binary"
	"math"
)

// DecodeF32LE converts little-endian 32-bit float PCM bytes into samples.
// Trailing bytes that do not form a full sample are dropped.
func DecodeF32LE(data []byte) []float32 {
	n := len(data) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

// DecodeS16LE converts little-endian signed 16-bit PCM bytes into
// normalized float samples.
func DecodeS16LE(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
