// Package mock provides a scripted test double for the stt package.
package mock

import (
	"context"
	"sync"

	"github.com/voxtype/voxtype/pkg/provider/stt"
)

// Result is one scripted Transcribe outcome.
type Result struct {
	// Text is the recognized text to return.
	Text string

	// Err, if non-nil, is returned instead of Text.
	Err error
}

// TranscribeCall records a single invocation of Recognizer.Transcribe.
type TranscribeCall struct {
	// Samples is a copy of the utterance passed in.
	Samples []float32
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Script is the sequence of results returned by successive Transcribe
	// calls. Once exhausted, the last entry repeats; an empty script yields
	// empty text.
	Script []Result

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall

	next int
}

// Transcribe records the call and returns the next scripted result.
func (r *Recognizer) Transcribe(_ context.Context, samples []float32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]float32, len(samples))
	copy(cp, samples)
	r.TranscribeCalls = append(r.TranscribeCalls, TranscribeCall{Samples: cp})

	if len(r.Script) == 0 {
		return "", nil
	}
	i := r.next
	if i >= len(r.Script) {
		i = len(r.Script) - 1
	} else {
		r.next++
	}
	res := r.Script[i]
	if res.Err != nil {
		return "", res.Err
	}
	return res.Text, nil
}

// Reset clears recorded calls and rewinds the script. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TranscribeCalls = nil
	r.next = 0
}

// Compile-time assertion that Recognizer implements stt.Recognizer.
var _ stt.Recognizer = (*Recognizer)(nil)
