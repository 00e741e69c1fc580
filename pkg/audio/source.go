// Package audio defines the capture-side abstractions for voxtype.
//
// The central interface is [Source]: a snapshot view over a continuously
// filled buffer of recent microphone samples. Capture backends (e.g.
// audio/malgo) write into a [Ring] on their own timeline while the segmenter
// reads fixed-duration snapshots on its polling cadence. The Ring owns all
// synchronization, so readers and the capture callback never coordinate
// directly.
package audio

// Source provides snapshot reads over the most recent audio samples.
//
// Fetch returns up to durationMs worth of the newest samples at the source's
// sample rate, oldest first. During warm-up — before the underlying buffer
// has filled — fewer samples than requested may be returned. The returned
// slice is a copy owned by the caller.
//
// Implementations must make Fetch safe to call concurrently with ongoing
// capture writes.
type Source interface {
	Fetch(durationMs int) []float32

	// SampleRate reports the fixed sample rate of the stream in Hz.
	SampleRate() int
}
