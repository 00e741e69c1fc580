package sink

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/voxtype/voxtype/internal/segmenter"
)

// runCommand executes an external command. Tests replace it to avoid
// spawning processes.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Xdotool types utterances into the currently focused X11 window by shelling
// out to xdotool. Each utterance is followed by a trailing space so
// consecutive utterances do not run together.
type Xdotool struct {
	binary string
}

// NewXdotool constructs the sink and verifies the xdotool binary is on PATH.
func NewXdotool() (*Xdotool, error) {
	path, err := exec.LookPath("xdotool")
	if err != nil {
		return nil, fmt.Errorf("sink: xdotool not found in PATH: %w", err)
	}
	return &Xdotool{binary: path}, nil
}

// Emit implements segmenter.Sink.
func (s *Xdotool) Emit(ctx context.Context, u segmenter.Utterance) error {
	return s.Type(ctx, u.Text+" ")
}

// Type injects raw text as keystrokes. The "--" guard keeps text starting
// with a dash from being parsed as a flag.
func (s *Xdotool) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := runCommand(ctx, s.binary, "type", "--clearmodifiers", "--", text); err != nil {
		return fmt.Errorf("sink: xdotool type: %w", err)
	}
	return nil
}

// Key presses a single key by its X keysym name, e.g. "Return".
func (s *Xdotool) Key(ctx context.Context, keysym string) error {
	if err := runCommand(ctx, s.binary, "key", "--clearmodifiers", keysym); err != nil {
		return fmt.Errorf("sink: xdotool key %s: %w", keysym, err)
	}
	return nil
}

// NewLine implements Controller by pressing Return.
func (s *Xdotool) NewLine(ctx context.Context) error {
	return s.Key(ctx, "Return")
}

// NewParagraph implements Controller by pressing Return twice.
func (s *Xdotool) NewParagraph(ctx context.Context) error {
	if err := s.Key(ctx, "Return"); err != nil {
		return err
	}
	return s.Key(ctx, "Return")
}

var (
	_ segmenter.Sink = (*Xdotool)(nil)
	_ Controller     = (*Xdotool)(nil)
)
