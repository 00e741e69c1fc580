// Package energy implements [vad.Classifier] with a pure-Go RMS energy
// measure. It needs no model file or cgo, which makes it the fallback backend
// and the reference implementation for classifier behavior in tests.
//
// The window is split into fixed-duration sub-chunks; each chunk's RMS level
// is normalized against a full-scale reference to yield a pseudo-probability
// in [0,1]. Energy is a crude stand-in for a learned model — it cannot tell
// speech from loud noise — but its probability contract matches Silero's, so
// the segmenter treats both identically.
package energy

import (
	"fmt"
	"math"

	"github.com/voxtype/voxtype/pkg/provider/vad"
)

const (
	// defaultChunkMs is the sub-chunk duration probabilities are reported over.
	defaultChunkMs = 100

	// defaultReferenceRMS is the RMS level mapped to probability 1.0. Normal
	// speech close to a microphone sits well above 0.05 in float PCM units.
	defaultReferenceRMS = 0.05
)

// Option is a functional option for configuring a Classifier.
type Option func(*Classifier)

// WithChunkMs sets the sub-chunk duration in milliseconds. Default: 100.
func WithChunkMs(ms int) Option {
	return func(c *Classifier) { c.chunkMs = ms }
}

// WithReferenceRMS sets the RMS level that maps to probability 1.0.
// Default: 0.05.
func WithReferenceRMS(ref float64) Option {
	return func(c *Classifier) { c.referenceRMS = ref }
}

// Classifier is a stateless RMS energy classifier. Safe for concurrent use.
type Classifier struct {
	sampleRate   int
	chunkMs      int
	referenceRMS float64
}

// New returns an energy Classifier for audio at the given sample rate.
func New(sampleRate int, opts ...Option) (*Classifier, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("energy: sample rate must be positive, got %d", sampleRate)
	}
	c := &Classifier{
		sampleRate:   sampleRate,
		chunkMs:      defaultChunkMs,
		referenceRMS: defaultReferenceRMS,
	}
	for _, o := range opts {
		o(c)
	}
	if c.chunkMs <= 0 {
		return nil, fmt.Errorf("energy: chunk duration must be positive, got %d", c.chunkMs)
	}
	return c, nil
}

// Classify implements [vad.Classifier].
func (c *Classifier) Classify(window []float32) ([]float64, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("energy: empty window")
	}

	chunkSamples := c.chunkMs * c.sampleRate / 1000
	if chunkSamples <= 0 || chunkSamples > len(window) {
		chunkSamples = len(window)
	}

	var probs []float64
	for start := 0; start < len(window); start += chunkSamples {
		end := start + chunkSamples
		if end > len(window) {
			end = len(window)
		}
		probs = append(probs, c.probability(window[start:end]))
	}
	return probs, nil
}

// probability maps a chunk's RMS level into [0,1].
func (c *Classifier) probability(chunk []float32) float64 {
	var sum float64
	for _, s := range chunk {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(chunk)))

	p := rms / c.referenceRMS
	if p > 1 {
		p = 1
	}
	return p
}

// Compile-time assertion that Classifier implements vad.Classifier.
var _ vad.Classifier = (*Classifier)(nil)
