// Package audio adapts decoded speech samples between the float32 mono PCM
// the executors speak and the wire formats request handlers accept/emit.
package audio

import (
	"encoding/binary"
	"math"
)

// Int16LEToFloat32 decodes signed 16-bit little-endian PCM into
// [-1.0, 1.0]-normalized float32 samples.
func Int16LEToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// Float32ToInt16LE encodes normalized float32 samples as signed 16-bit
// little-endian PCM, clamping out-of-range input rather than wrapping.
func Float32ToInt16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		v := int16(clamped * 32767.0)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
