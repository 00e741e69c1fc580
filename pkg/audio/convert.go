package audio

import (
	"encoding/binary"
	"math"
)

// SampleCount converts a duration in milliseconds to a sample count at the
// given rate.
func SampleCount(durationMs, sampleRate int) int {
	return durationMs * sampleRate / 1000
}

// DurationMs converts a sample count to a duration in milliseconds at the
// given rate.
func DurationMs(samples, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return samples * 1000 / sampleRate
}

// SamplesFromBytes decodes little-endian IEEE-754 float32 PCM bytes, as
// delivered by a capture device in f32 format, into a sample slice. Trailing
// bytes that do not form a full sample are ignored.
func SamplesFromBytes(data []byte) []float32 {
	out := make([]float32, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(data[i:i+4])))
	}
	return out
}
