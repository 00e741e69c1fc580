// Package segmenter implements the speech segmentation loop: it polls a
// live audio source, classifies the most recent stretch of audio for voice
// activity and cuts the stream into utterances. Each finalized utterance is
// transcribed and handed to a sink.
//
// The loop is deliberately forgiving: a failed classification, a failed
// transcription or an empty result never stops it. The worst outcome of any
// single cycle is that nothing happened.
package segmenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxtype/voxtype/internal/observe"
	"github.com/voxtype/voxtype/pkg/audio"
	"github.com/voxtype/voxtype/pkg/provider/stt"
	"github.com/voxtype/voxtype/pkg/provider/vad"
)

// State is the detector's position in the speak/pause cycle.
type State int

const (
	// StateIdle means no utterance is in progress.
	StateIdle State = iota
	// StateSpeaking means samples are being accumulated for an utterance.
	StateSpeaking
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Utterance is one finalized, non-empty transcription.
type Utterance struct {
	// Text is the transcribed text, whitespace-trimmed and never empty.
	Text string

	// AudioDuration is the length of the audio segment that produced Text,
	// including the look-back prefix captured before speech onset.
	AudioDuration time.Duration

	// EndedAt is when the trailing pause was detected.
	EndedAt time.Time
}

// Sink receives finalized utterances. Implementations must tolerate being
// called from the detector loop; a slow sink delays the next poll cycle.
type Sink interface {
	Emit(ctx context.Context, u Utterance) error
}

// Config holds the detector tuning parameters. Values are expected to be
// clamped to sane floors by the configuration layer before they get here.
type Config struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// BufferMs is how much trailing audio to fetch from the source each
	// cycle. It bounds both the look-back prefix and per-cycle accumulation.
	BufferMs int

	// SilenceMs is the length of the tail window classified for voice
	// activity. Speech ends only after this much trailing quiet.
	SilenceMs int

	// MinStepMs is the minimum time between poll cycles.
	MinStepMs int

	// VADThreshold is the voice probability above which a window counts as
	// speech. Must be in (0, 1).
	VADThreshold float64
}

func (c Config) validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate))
	}
	if c.BufferMs <= 0 {
		errs = append(errs, fmt.Errorf("buffer duration must be positive, got %dms", c.BufferMs))
	}
	if c.SilenceMs <= 0 {
		errs = append(errs, fmt.Errorf("silence window must be positive, got %dms", c.SilenceMs))
	}
	if c.SilenceMs > c.BufferMs {
		errs = append(errs, fmt.Errorf("silence window (%dms) must not exceed buffer (%dms)", c.SilenceMs, c.BufferMs))
	}
	if c.MinStepMs <= 0 {
		errs = append(errs, fmt.Errorf("minimum step must be positive, got %dms", c.MinStepMs))
	}
	if c.VADThreshold <= 0 || c.VADThreshold >= 1 {
		errs = append(errs, fmt.Errorf("vad threshold must be in (0, 1), got %g", c.VADThreshold))
	}
	return errors.Join(errs...)
}

// Option is a functional option for Detector.
type Option func(*Detector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithMetrics sets the metrics instruments. Defaults to no-op instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// Detector runs the segmentation state machine. Construct with New and
// drive with Run; all other methods are safe to call from other goroutines
// only where documented.
type Detector struct {
	source     audio.Source
	classifier vad.Classifier
	recognizer stt.Recognizer
	sink       Sink

	cfg            Config
	silenceSamples int

	logger  *slog.Logger
	metrics *observe.Metrics

	state     State
	acc       *accumulator
	lastFetch time.Time

	// Clock hooks, swapped out by tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Detector. All four collaborators are required.
func New(source audio.Source, classifier vad.Classifier, recognizer stt.Recognizer, sink Sink, cfg Config, opts ...Option) (*Detector, error) {
	if source == nil || classifier == nil || recognizer == nil || sink == nil {
		return nil, errors.New("segmenter: source, classifier, recognizer and sink are all required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("segmenter: invalid config: %w", err)
	}

	d := &Detector{
		source:         source,
		classifier:     classifier,
		recognizer:     recognizer,
		sink:           sink,
		cfg:            cfg,
		silenceSamples: audio.SampleCount(cfg.SilenceMs, cfg.SampleRate),
		logger:         slog.Default(),
		metrics:        observe.NewNopMetrics(),
		state:          StateIdle,
		acc:            newAccumulator(cfg.SampleRate, 30),
		now:            time.Now,
		sleep:          sleepContext,
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// State returns the detector's current state. Only meaningful between
// cycles; intended for health reporting.
func (d *Detector) State() State {
	return d.state
}

// Run executes the poll loop until ctx is cancelled. An utterance still in
// progress at shutdown is dropped, not flushed.
func (d *Detector) Run(ctx context.Context) error {
	d.logger.Info("detector started",
		"sample_rate", d.cfg.SampleRate,
		"buffer_ms", d.cfg.BufferMs,
		"silence_ms", d.cfg.SilenceMs,
		"min_step_ms", d.cfg.MinStepMs,
		"vad_threshold", d.cfg.VADThreshold,
	)

	d.lastFetch = d.now()
	for {
		if err := d.pace(ctx); err != nil {
			d.logger.Info("detector stopped", "state", d.state)
			return nil
		}
		if ctx.Err() != nil {
			d.logger.Info("detector stopped", "state", d.state)
			return nil
		}
		d.cycle(ctx)
	}
}

// pace sleeps until at least MinStepMs has passed since the previous fetch.
func (d *Detector) pace(ctx context.Context) error {
	step := time.Duration(d.cfg.MinStepMs) * time.Millisecond
	elapsed := d.now().Sub(d.lastFetch)
	if elapsed < step {
		return d.sleep(ctx, step-elapsed)
	}
	return nil
}

// cycle performs one poll iteration: fetch, classify, accumulate, and run
// any state transition. Accumulation happens before transitions so the
// onset cycle's segment is exactly the look-back window and the final cycle
// still captures the audio recorded since the previous fetch.
func (d *Detector) cycle(ctx context.Context) {
	now := d.now()
	elapsed := now.Sub(d.lastFetch)
	d.lastFetch = now

	d.metrics.Cycles.Add(ctx, 1)

	window := d.source.Fetch(d.cfg.BufferMs)

	voice := d.classify(ctx, window)

	if d.state == StateSpeaking {
		d.accumulate(window, elapsed)
	}

	switch {
	case voice && d.state == StateIdle:
		d.beginUtterance(ctx, window)
	case !voice && d.state == StateSpeaking:
		d.finishUtterance(ctx)
	}
}

// classify runs voice activity detection on the trailing silence window.
// During warm-up, before the source holds a full silence window, the result
// is always no-voice. A classifier failure also counts as no voice this
// cycle, so a failure mid-utterance finalizes the segment instead of
// stranding it in Speaking.
func (d *Detector) classify(ctx context.Context, window []float32) bool {
	tail := tailWindow(window, d.silenceSamples)
	if tail == nil {
		return false
	}

	start := d.now()
	probs, err := d.classifier.Classify(tail)
	d.metrics.ClassifyDuration.Record(ctx, d.now().Sub(start).Seconds())
	if err != nil {
		d.logger.Warn("voice classification failed, treating as silence", "err", err)
		return false
	}
	return vad.MaxProbability(probs) > d.cfg.VADThreshold
}

// accumulate appends the samples recorded since the previous fetch, capped
// at the fetched window. If the loop fell behind by more than BufferMs the
// overwritten audio is lost; there is nowhere to recover it from.
func (d *Detector) accumulate(window []float32, elapsed time.Duration) {
	n := audio.SampleCount(int(elapsed.Milliseconds()), d.cfg.SampleRate)
	if n > len(window) {
		n = len(window)
	}
	if n <= 0 {
		return
	}
	d.acc.Append(window[len(window)-n:])
}

// beginUtterance transitions Idle -> Speaking, seeding the segment with the
// silence window that tripped the detector so the utterance keeps the
// audio from just before onset.
func (d *Detector) beginUtterance(ctx context.Context, window []float32) {
	tail := tailWindow(window, d.silenceSamples)
	d.state = StateSpeaking
	d.acc.Seed(tail)
	d.metrics.Speaking.Add(ctx, 1)
	d.logger.Debug("speech onset", "lookback_samples", len(tail))
}

// finishUtterance transitions Speaking -> Idle, transcribes the accumulated
// segment and emits the result if it is non-empty.
func (d *Detector) finishUtterance(ctx context.Context) {
	d.state = StateIdle
	d.metrics.Speaking.Add(ctx, -1)

	samples := d.acc.Take()
	audioDur := time.Duration(audio.DurationMs(len(samples), d.cfg.SampleRate)) * time.Millisecond
	d.metrics.SegmentDuration.Record(ctx, audioDur.Seconds())

	start := d.now()
	text, err := d.recognizer.Transcribe(ctx, samples)
	d.metrics.TranscribeDuration.Record(ctx, d.now().Sub(start).Seconds())

	if err != nil {
		d.metrics.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		d.logger.Warn("transcription failed", "err", err, "audio", audioDur)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		d.metrics.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "empty")))
		d.logger.Debug("discarded empty transcription", "audio", audioDur)
		return
	}

	d.metrics.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	u := Utterance{
		Text:          text,
		AudioDuration: audioDur,
		EndedAt:       d.now(),
	}
	d.logger.Info("utterance finalized", "text", text, "audio", audioDur)

	if err := d.sink.Emit(ctx, u); err != nil {
		d.logger.Error("emitting utterance failed", "err", err)
	}
}

// tailWindow returns the last n samples of window, or nil if window is
// still shorter than n.
func tailWindow(window []float32, n int) []float32 {
	if len(window) < n {
		return nil
	}
	return window[len(window)-n:]
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
