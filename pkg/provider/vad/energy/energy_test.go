package energy

import (
	"math"
	"testing"

	"github.com/voxtype/voxtype/pkg/provider/vad"
)

// tone generates n samples of a sine wave at the given amplitude.
func tone(n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return out
}

func TestClassify_SilenceScoresLow(t *testing.T) {
	t.Parallel()

	c, err := New(16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probs, err := c.Classify(make([]float32, 8000)) // 500ms of zeros
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 5 {
		t.Fatalf("want 5 chunks for 500ms at 100ms/chunk, got %d", len(probs))
	}
	if got := vad.MaxProbability(probs); got != 0 {
		t.Fatalf("want 0 probability for silence, got %v", got)
	}
}

func TestClassify_LoudToneScoresHigh(t *testing.T) {
	t.Parallel()

	c, err := New(16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probs, err := c.Classify(tone(8000, 0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := vad.MaxProbability(probs); got < 0.9 {
		t.Fatalf("want probability near 1 for loud tone, got %v", got)
	}
}

func TestClassify_MixedWindowMaxPicksTheBurst(t *testing.T) {
	t.Parallel()

	c, err := New(16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 400ms of silence followed by a 100ms burst.
	window := make([]float32, 8000)
	copy(window[6400:], tone(1600, 0.5))

	probs, err := c.Classify(window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] != 0 {
		t.Fatalf("want first chunk silent, got %v", probs[0])
	}
	if got := vad.MaxProbability(probs); got < 0.9 {
		t.Fatalf("max reduction must pick up the burst, got %v", got)
	}
}

func TestClassify_EmptyWindowFails(t *testing.T) {
	t.Parallel()

	c, err := New(16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Classify(nil); err == nil {
		t.Fatal("want error for empty window")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(0); err == nil {
		t.Fatal("want error for zero sample rate")
	}
	if _, err := New(16000, WithChunkMs(0)); err == nil {
		t.Fatal("want error for zero chunk duration")
	}
}

func TestMaxProbability_Empty(t *testing.T) {
	t.Parallel()

	if got := vad.MaxProbability(nil); got != 0 {
		t.Fatalf("want 0 for empty sequence, got %v", got)
	}
}
