// Package mock provides a scripted test double for the vad package.
//
// Use Classifier to drive the segmenter through exact probability sequences:
//
//	cls := &mock.Classifier{Script: []mock.Result{
//	    {Probs: []float64{0.1}},
//	    {Probs: []float64{0.9}},
//	    {Err: errors.New("classifier offline")},
//	}}
package mock

import (
	"sync"

	"github.com/voxtype/voxtype/pkg/provider/vad"
)

// Result is one scripted Classify outcome.
type Result struct {
	// Probs is the probability sequence to return.
	Probs []float64

	// Err, if non-nil, is returned instead of Probs.
	Err error
}

// ClassifyCall records a single invocation of Classifier.Classify.
type ClassifyCall struct {
	// WindowLen is the length of the window passed in.
	WindowLen int
}

// Classifier is a mock implementation of vad.Classifier.
type Classifier struct {
	mu sync.Mutex

	// Script is the sequence of results returned by successive Classify
	// calls. Once exhausted, the last entry repeats; an empty script yields
	// an all-zero single-chunk result.
	Script []Result

	// ClassifyCalls records every call to Classify in order.
	ClassifyCalls []ClassifyCall

	next int
}

// Classify records the call and returns the next scripted result.
func (c *Classifier) Classify(window []float32) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ClassifyCalls = append(c.ClassifyCalls, ClassifyCall{WindowLen: len(window)})
	if len(c.Script) == 0 {
		return []float64{0}, nil
	}
	i := c.next
	if i >= len(c.Script) {
		i = len(c.Script) - 1
	} else {
		c.next++
	}
	r := c.Script[i]
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]float64, len(r.Probs))
	copy(out, r.Probs)
	return out, nil
}

// Reset clears recorded calls and rewinds the script. Thread-safe.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClassifyCalls = nil
	c.next = 0
}

// Compile-time assertion that Classifier implements vad.Classifier.
var _ vad.Classifier = (*Classifier)(nil)
