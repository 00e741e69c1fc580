// Package vad defines the Classifier interface for voice activity detection
// backends.
//
// A classifier receives a fixed-duration window of mono float32 samples and
// returns speech probabilities for sub-chunks of that window. The segmenter
// never depends on the chunking granularity — it reduces the sequence to a
// single boolean by comparing the maximum probability against its configured
// threshold. The maximum is deliberate: it favors catching brief speech
// bursts over suppressing false positives.
//
// Implementations must be safe for use from a single goroutine at a time;
// the segmenter calls Classify strictly sequentially. A classifier error is
// never fatal — callers treat it as "no voice this cycle".
package vad

// Classifier analyses one window of audio samples.
type Classifier interface {
	// Classify returns per-sub-chunk speech probabilities in [0,1] for the
	// window. The result must be non-empty on success. The window slice must
	// not be retained after the call returns.
	Classify(window []float32) ([]float64, error)
}

// MaxProbability reduces a probability sequence to its maximum. Returns 0
// for an empty sequence.
func MaxProbability(probs []float64) float64 {
	max := 0.0
	for _, p := range probs {
		if p > max {
			max = p
		}
	}
	return max
}
