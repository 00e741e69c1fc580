package audio

import "sync"

// Ring is a fixed-capacity circular buffer of float32 samples that retains
// the most recent capacityMs of audio. It implements [Source].
//
// One writer (the capture callback) and any number of readers may use a Ring
// concurrently; a mutex guards all access. Write never blocks and never
// grows the buffer — old samples are overwritten once capacity is reached,
// matching the sliding-window semantics the segmenter expects.
type Ring struct {
	mu         sync.Mutex
	samples    []float32
	head       int // next write position
	size       int // number of valid samples, ≤ len(samples)
	sampleRate int
}

// NewRing creates a Ring holding at most capacityMs of audio at sampleRate.
func NewRing(capacityMs, sampleRate int) *Ring {
	n := SampleCount(capacityMs, sampleRate)
	if n < 1 {
		n = 1
	}
	return &Ring{
		samples:    make([]float32, n),
		sampleRate: sampleRate,
	}
}

// Write appends samples, overwriting the oldest data once full.
func (r *Ring) Write(samples []float32) {
	if len(samples) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Only the tail that fits can ever be observed.
	if len(samples) > len(r.samples) {
		samples = samples[len(samples)-len(r.samples):]
	}
	for _, s := range samples {
		r.samples[r.head] = s
		r.head = (r.head + 1) % len(r.samples)
	}
	r.size += len(samples)
	if r.size > len(r.samples) {
		r.size = len(r.samples)
	}
}

// Fetch implements [Source]. It returns a copy of the newest durationMs of
// samples, oldest first, or fewer if the ring has not filled that far yet.
func (r *Ring) Fetch(durationMs int) []float32 {
	want := SampleCount(durationMs, r.sampleRate)

	r.mu.Lock()
	defer r.mu.Unlock()

	if want > r.size {
		want = r.size
	}
	if want <= 0 {
		return nil
	}

	out := make([]float32, want)
	start := (r.head - want + len(r.samples)) % len(r.samples)
	n := copy(out, r.samples[start:])
	if n < want {
		copy(out[n:], r.samples[:want-n])
	}
	return out
}

// SampleRate implements [Source].
func (r *Ring) SampleRate() int { return r.sampleRate }

// Len reports the number of valid samples currently buffered.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Reset discards all buffered samples.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.size = 0
}
