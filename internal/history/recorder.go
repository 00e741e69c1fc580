package history

import (
	"context"
	"log/slog"

	"github.com/voxtype/voxtype/internal/segmenter"
)

// Inserter persists a single history entry. *PostgresStore implements it.
type Inserter interface {
	Insert(ctx context.Context, e Entry) error
}

// Recorder is a sink that records every emitted utterance into the recent
// buffer and, when a store is configured, into durable history. A store
// failure is logged and swallowed so the dictation pipeline keeps running.
type Recorder struct {
	buffer *Buffer
	store  Inserter
	logger *slog.Logger
}

// NewRecorder constructs a Recorder. store may be nil for memory-only
// operation.
func NewRecorder(buffer *Buffer, store Inserter, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{buffer: buffer, store: store, logger: logger}
}

// Emit implements segmenter.Sink.
func (r *Recorder) Emit(ctx context.Context, u segmenter.Utterance) error {
	e := Entry{
		Text:          u.Text,
		AudioDuration: u.AudioDuration,
		EndedAt:       u.EndedAt,
	}
	r.buffer.Add(e)

	if r.store != nil {
		if err := r.store.Insert(ctx, e); err != nil {
			r.logger.Warn("history persistence failed", "err", err)
		}
	}
	return nil
}

var _ segmenter.Sink = (*Recorder)(nil)
