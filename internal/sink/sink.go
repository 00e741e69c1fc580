// Package sink provides output destinations for finalized utterances:
// plain writers for piping, an X11 keystroke injector for dictation into the
// focused window, and a fan-out combinator.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/voxtype/voxtype/internal/segmenter"
)

// Controller injects editing actions into the output target. Spoken commands
// like "new line" resolve to these instead of being typed literally.
type Controller interface {
	NewLine(ctx context.Context) error
	NewParagraph(ctx context.Context) error
}

// Writer emits each utterance as a line of text to an io.Writer. It is the
// default sink for stdout mode and for piping into other tools.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	sep string
}

// NewWriter constructs a Writer. Each utterance is followed by sep, which
// defaults to "\n" when empty.
func NewWriter(w io.Writer, sep string) *Writer {
	if sep == "" {
		sep = "\n"
	}
	return &Writer{w: w, sep: sep}
}

// Emit implements segmenter.Sink.
func (s *Writer) Emit(_ context.Context, u segmenter.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, u.Text+s.sep); err != nil {
		return fmt.Errorf("sink: write: %w", err)
	}
	return nil
}

// NewLine implements Controller by writing a line break.
func (s *Writer) NewLine(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, "\n"); err != nil {
		return fmt.Errorf("sink: write: %w", err)
	}
	return nil
}

// NewParagraph implements Controller by writing a blank line.
func (s *Writer) NewParagraph(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, "\n\n"); err != nil {
		return fmt.Errorf("sink: write: %w", err)
	}
	return nil
}

// Multi fans an utterance out to several sinks. Every sink is attempted even
// when an earlier one fails; failures are joined into one error.
type Multi struct {
	sinks  []segmenter.Sink
	logger *slog.Logger
}

// NewMulti constructs a Multi over the given sinks. Nil entries are skipped.
func NewMulti(logger *slog.Logger, sinks ...segmenter.Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]segmenter.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out, logger: logger}
}

// Emit implements segmenter.Sink.
func (m *Multi) Emit(ctx context.Context, u segmenter.Utterance) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, u); err != nil {
			m.logger.Warn("sink delivery failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ segmenter.Sink = (*Writer)(nil)
	_ segmenter.Sink = (*Multi)(nil)
	_ Controller     = (*Writer)(nil)
)
