// Package silero implements [vad.Classifier] with the Silero VAD ONNX model
// via github.com/streamer45/silero-vad-go.
//
// The underlying detector reports speech as time spans rather than raw
// per-frame probabilities, so this adapter maps each detected span back onto
// fixed-size sub-chunks of the window: a chunk's probability is the fraction
// of it covered by speech. Chunks fully inside a span score 1.0, untouched
// chunks score 0.0. The detector state is reset before every window so that
// successive windows are classified independently.
package silero

import (
	"fmt"
	"sync"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/voxtype/voxtype/pkg/provider/vad"
)

// chunkSamples is the sub-chunk size probabilities are reported over: 512
// samples, the Silero frame size at 16 kHz.
const chunkSamples = 512

// Config holds the Silero classifier parameters.
type Config struct {
	// ModelPath is the silero_vad.onnx file path.
	ModelPath string

	// SampleRate must be 8000 or 16000 per the model's contract.
	SampleRate int

	// Threshold is the model-internal speech probability threshold used for
	// span detection. The segmenter applies its own threshold on top of the
	// probabilities this classifier reports.
	Threshold float32
}

// Classifier wraps a Silero speech detector. A mutex serializes access to
// the detector, which is stateful and not safe for concurrent use.
type Classifier struct {
	mu         sync.Mutex
	detector   *speech.Detector
	sampleRate int
}

// New loads the Silero model and returns a ready Classifier. The caller must
// call Close to release the ONNX session.
func New(cfg Config) (*Classifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("silero: model path must not be empty")
	}
	if cfg.SampleRate != 8000 && cfg.SampleRate != 16000 {
		return nil, fmt.Errorf("silero: unsupported sample rate %d (want 8000 or 16000)", cfg.SampleRate)
	}

	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:  cfg.ModelPath,
		SampleRate: cfg.SampleRate,
		Threshold:  cfg.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("silero: create detector: %w", err)
	}

	return &Classifier{detector: detector, sampleRate: cfg.SampleRate}, nil
}

// Classify implements [vad.Classifier].
func (c *Classifier) Classify(window []float32) ([]float64, error) {
	if len(window) < chunkSamples {
		return nil, fmt.Errorf("silero: window too short: %d samples", len(window))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.detector.Reset(); err != nil {
		return nil, fmt.Errorf("silero: reset detector: %w", err)
	}
	segments, err := c.detector.DetectStream(window)
	if err != nil {
		return nil, fmt.Errorf("silero: detect: %w", err)
	}

	windowSec := float64(len(window)) / float64(c.sampleRate)
	chunkSec := float64(chunkSamples) / float64(c.sampleRate)
	nChunks := len(window) / chunkSamples

	probs := make([]float64, nChunks)
	for _, seg := range segments {
		start := seg.SpeechStartAt
		end := seg.SpeechEndAt
		if end == 0 {
			// Speech still active at the end of the window.
			end = windowSec
		}
		for i := 0; i < nChunks; i++ {
			cs := float64(i) * chunkSec
			ce := cs + chunkSec
			overlap := min(ce, end) - max(cs, start)
			if overlap <= 0 {
				continue
			}
			if p := overlap / chunkSec; p > probs[i] {
				probs[i] = p
			}
		}
	}
	return probs, nil
}

// Close releases the ONNX session. Safe to call once.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.detector.Destroy(); err != nil {
		return fmt.Errorf("silero: destroy detector: %w", err)
	}
	return nil
}

// Compile-time assertion that Classifier implements vad.Classifier.
var _ vad.Classifier = (*Classifier)(nil)
