package segmenter

// accumulator collects the samples of the utterance currently in progress.
// It is not safe for concurrent use; the detector loop is its only caller.
type accumulator struct {
	samples []float32
}

// newAccumulator returns an accumulator with capacity preallocated for
// roughly initialSeconds of audio at the given rate, so typical utterances
// grow without reallocating.
func newAccumulator(sampleRate, initialSeconds int) *accumulator {
	return &accumulator{
		samples: make([]float32, 0, sampleRate*initialSeconds),
	}
}

// Seed starts a new utterance with the given look-back samples, discarding
// anything previously accumulated.
func (a *accumulator) Seed(samples []float32) {
	a.samples = a.samples[:0]
	a.samples = append(a.samples, samples...)
}

// Append adds newly captured samples to the utterance in progress.
func (a *accumulator) Append(samples []float32) {
	a.samples = append(a.samples, samples...)
}

// Take returns the accumulated utterance and resets the accumulator. The
// returned slice is owned by the caller.
func (a *accumulator) Take() []float32 {
	out := make([]float32, len(a.samples))
	copy(out, a.samples)
	a.samples = a.samples[:0]
	return out
}

// Len reports the number of accumulated samples.
func (a *accumulator) Len() int {
	return len(a.samples)
}

// Reset discards any accumulated samples.
func (a *accumulator) Reset() {
	a.samples = a.samples[:0]
}
