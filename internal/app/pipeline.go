package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxtype/voxtype/internal/command"
	"github.com/voxtype/voxtype/internal/correct"
	"github.com/voxtype/voxtype/internal/observe"
	"github.com/voxtype/voxtype/internal/segmenter"
	"github.com/voxtype/voxtype/internal/sink"
)

// Output is the terminal destination for dictated text. Both output modes
// (keystroke injection and stdout) satisfy it.
type Output interface {
	segmenter.Sink
	sink.Controller
}

// namedSink labels a secondary sink for logging and metrics attribution.
type namedSink struct {
	name string
	sink segmenter.Sink
}

// pipeline is the sink the detector emits into. Per utterance it checks for
// spoken commands, applies optional LLM correction and fans the text out to
// the output target plus the secondary sinks (history, feed).
//
// Spoken commands are matched against the raw transcription, before
// correction: command phrases are fixed and paying LLM latency for them
// would stall the loop.
type pipeline struct {
	logger    *slog.Logger
	metrics   *observe.Metrics
	corrector *correct.Corrector
	filter    *command.Filter
	output    Output
	sinks     []namedSink

	paused   atomic.Bool
	commands atomic.Bool
}

func newPipeline(logger *slog.Logger, metrics *observe.Metrics, corrector *correct.Corrector,
	filter *command.Filter, output Output, extras ...namedSink) *pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.NewNopMetrics()
	}
	sinks := append([]namedSink{{name: "output", sink: output}}, extras...)
	p := &pipeline{
		logger:    logger,
		metrics:   metrics,
		corrector: corrector,
		filter:    filter,
		output:    output,
		sinks:     sinks,
	}
	p.commands.Store(true)
	return p
}

// Emit implements segmenter.Sink.
func (p *pipeline) Emit(ctx context.Context, u segmenter.Utterance) error {
	if p.commands.Load() {
		if action, ok := p.filter.Check(u.Text); ok {
			p.logger.Debug("spoken command recognised", "action", action)
			return p.runAction(ctx, action)
		}
	}

	if p.paused.Load() {
		p.logger.Debug("dictation paused, dropping utterance")
		return nil
	}

	if p.corrector != nil {
		corrected, corrections, err := p.corrector.Correct(ctx, u.Text)
		if err != nil {
			p.logger.Warn("correction failed, emitting raw text", "err", err)
		} else {
			if len(corrections) > 0 {
				p.logger.Debug("corrections applied", "count", len(corrections))
			}
			u.Text = corrected
		}
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.sink.Emit(ctx, u); err != nil {
			p.logger.Warn("sink delivery failed", "sink", s.name, "err", err)
			errs = append(errs, err)
			continue
		}
		p.metrics.Emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", s.name)))
	}
	return errors.Join(errs...)
}

// runAction executes a recognised spoken command. Pause and resume always
// work; editing actions are dropped while paused.
func (p *pipeline) runAction(ctx context.Context, action command.Action) error {
	switch action {
	case command.ActionPause:
		p.paused.Store(true)
		p.logger.Info("dictation paused by voice command")
		return nil
	case command.ActionResume:
		p.paused.Store(false)
		p.logger.Info("dictation resumed by voice command")
		return nil
	}

	if p.paused.Load() {
		return nil
	}

	switch action {
	case command.ActionNewLine:
		return p.output.NewLine(ctx)
	case command.ActionNewParagraph:
		return p.output.NewParagraph(ctx)
	}
	return nil
}

// togglePause flips the paused state and reports the new value.
func (p *pipeline) togglePause() bool {
	for {
		old := p.paused.Load()
		if p.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (p *pipeline) setCommandsEnabled(enabled bool) {
	p.commands.Store(enabled)
}

var _ segmenter.Sink = (*pipeline)(nil)
