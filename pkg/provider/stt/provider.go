// Package stt defines the Recognizer interface for speech-to-text backends.
//
// voxtype transcribes one bounded utterance at a time: the segmenter hands a
// finished sample buffer to the recognizer and blocks until text comes back.
// There is no streaming surface — whisper.cpp is a batch engine, and the
// single-utterance contract keeps the pipeline simple.
//
// An empty result is a valid outcome (silence misclassified as speech,
// non-speech noise) and is not an error. Callers must discard empty text
// without forwarding it downstream.
package stt

import "context"

// Recognizer converts one utterance of mono float32 samples into text.
//
// Implementations must be safe for sequential reuse; the segmenter issues at
// most one Transcribe call at a time. The samples slice must not be retained
// after the call returns. A non-nil error means no text was produced for
// this utterance; the caller continues with the next one.
type Recognizer interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}
