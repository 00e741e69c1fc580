// Package whisper implements [stt.Recognizer] with the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers must be
// available at link time via LIBRARY_PATH and C_INCLUDE_PATH.
//
// The model is loaded once at construction and shared across utterances; a
// fresh whisper context is created per Transcribe call because contexts are
// not safe for reuse across goroutines while the model is.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/voxtype/voxtype/pkg/provider/stt"
)

const defaultLanguage = "en"

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithLanguage sets the spoken language code (e.g. "en", "de") or "auto" for
// model-side detection. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// WithThreads sets the inference thread count. Zero keeps the binding's
// default.
func WithThreads(n int) Option {
	return func(r *Recognizer) { r.threads = n }
}

// WithTranslate enables translation to English instead of same-language
// transcription. Off by default.
func WithTranslate(enabled bool) Option {
	return func(r *Recognizer) { r.translate = enabled }
}

// Recognizer is a whisper.cpp-backed speech recognizer.
type Recognizer struct {
	model     whisperlib.Model
	language  string
	threads   int
	translate bool
}

// New loads the whisper model from modelPath. The caller must call Close
// when the recognizer is no longer needed.
func New(modelPath string, opts ...Option) (*Recognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	r := &Recognizer{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Transcribe implements [stt.Recognizer]. It runs batch inference over the
// utterance and returns the concatenated, whitespace-trimmed segment text.
// An empty string with a nil error means the model heard nothing.
func (r *Recognizer) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("whisper: context cancelled: %w", err)
	}
	if len(samples) == 0 {
		return "", nil
	}

	wctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", r.language, err)
	}
	if r.threads > 0 {
		wctx.SetThreads(uint(r.threads))
	}
	wctx.SetTranslate(r.translate)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the whisper model.
func (r *Recognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}

// Compile-time assertion that Recognizer implements stt.Recognizer.
var _ stt.Recognizer = (*Recognizer)(nil)
