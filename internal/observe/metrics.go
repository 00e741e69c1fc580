// Package observe provides observability primitives for voxtype:
// OpenTelemetry metrics with a Prometheus exporter bridge so the standard
// /metrics endpoint keeps working.
//
// Tests should construct [Metrics] with a custom [metric.MeterProvider] (or
// [NewNopMetrics]) to avoid cross-test pollution of the global provider.
package observe

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all voxtype metrics.
const meterName = "github.com/voxtype/voxtype"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronization.
type Metrics struct {
	// ClassifyDuration tracks VAD classification latency per cycle.
	ClassifyDuration metric.Float64Histogram

	// TranscribeDuration tracks recognition latency per utterance.
	TranscribeDuration metric.Float64Histogram

	// SegmentDuration tracks the audio length of finalized utterances.
	SegmentDuration metric.Float64Histogram

	// Utterances counts finalized utterances. Use with attribute:
	//   attribute.String("status", "ok"|"empty"|"error")
	Utterances metric.Int64Counter

	// Cycles counts detector poll cycles.
	Cycles metric.Int64Counter

	// Speaking tracks the detector state: +1 on Idle→Speaking, -1 on
	// Speaking→Idle, so the gauge reads 1 while an utterance is in progress.
	Speaking metric.Int64UpDownCounter

	// Emitted counts texts delivered to output sinks. Use with attribute:
	//   attribute.String("sink", ...)
	Emitted metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// VAD and whisper inference latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// segmentBuckets defines bucket boundaries (in seconds) for utterance audio
// lengths.
var segmentBuckets = []float64{
	0.5, 1, 2, 4, 8, 15, 30, 60, 120,
}

// NewMetrics creates a fully initialized [Metrics] using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ClassifyDuration, err = m.Float64Histogram("voxtype.vad.duration",
		metric.WithDescription("Latency of voice activity classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("voxtype.stt.duration",
		metric.WithDescription("Latency of utterance transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentDuration, err = m.Float64Histogram("voxtype.segment.duration",
		metric.WithDescription("Audio length of finalized utterance segments."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(segmentBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("voxtype.utterances",
		metric.WithDescription("Finalized utterances by transcription status."),
	); err != nil {
		return nil, err
	}
	if met.Cycles, err = m.Int64Counter("voxtype.detector.cycles",
		metric.WithDescription("Detector poll cycles."),
	); err != nil {
		return nil, err
	}
	if met.Speaking, err = m.Int64UpDownCounter("voxtype.detector.speaking",
		metric.WithDescription("1 while an utterance is being accumulated."),
	); err != nil {
		return nil, err
	}
	if met.Emitted, err = m.Int64Counter("voxtype.sink.emitted",
		metric.WithDescription("Texts delivered to output sinks."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// NewNopMetrics returns a [Metrics] whose instruments record nothing. Used
// as the default when no meter provider is wired.
func NewNopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}
