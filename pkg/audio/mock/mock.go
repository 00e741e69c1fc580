// Package mock provides test doubles for the audio package interfaces.
//
// Source replays a script of per-fetch sample buffers, so segmenter tests can
// model warm-up (short buffers) and steady state without a capture device.
package mock

import (
	"sync"

	"github.com/voxtype/voxtype/pkg/audio"
)

// FetchCall records a single invocation of Source.Fetch.
type FetchCall struct {
	// DurationMs is the duration requested.
	DurationMs int
}

// Source is a mock implementation of audio.Source.
type Source struct {
	mu sync.Mutex

	// Script is the sequence of buffers returned by successive Fetch calls.
	// Once exhausted, Fetch keeps returning the last entry; an empty script
	// yields nil.
	Script [][]float32

	// Rate is returned by SampleRate. Defaults to 16000 when zero.
	Rate int

	// FetchCalls records every call to Fetch in order.
	FetchCalls []FetchCall

	next int
}

// Fetch records the call and returns the next scripted buffer.
func (s *Source) Fetch(durationMs int) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FetchCalls = append(s.FetchCalls, FetchCall{DurationMs: durationMs})
	if len(s.Script) == 0 {
		return nil
	}
	i := s.next
	if i >= len(s.Script) {
		i = len(s.Script) - 1
	} else {
		s.next++
	}
	buf := s.Script[i]
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}

// SampleRate returns Rate, defaulting to 16000.
func (s *Source) SampleRate() int {
	if s.Rate == 0 {
		return 16000
	}
	return s.Rate
}

// Reset clears recorded calls and rewinds the script. Thread-safe.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchCalls = nil
	s.next = 0
}

// Compile-time assertion that Source implements audio.Source.
var _ audio.Source = (*Source)(nil)
