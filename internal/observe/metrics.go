// Package observe provides the observability primitives of the assessment
// engine: OpenTelemetry metrics, tracing, and trace-aware structured
// logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to a Prometheus registry, which the CLI can dump to a
// textfile for node_exporter. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/enunciate"

// Pipeline stage names recorded on the enunciate.stage.duration histogram.
const (
	StageNormalize = "normalize"
	StageRecognize = "recognize"
	StageTokenize  = "tokenize"
	StagePhonemes  = "phonemes"
	StageAlign     = "align"
	StageScore     = "score"
	StageAggregate = "aggregate"
)

// Metrics holds all OpenTelemetry metric instruments for the engine. All
// fields are safe for concurrent use.
type Metrics struct {
	// AssessmentDuration tracks end-to-end run latency as observed by the
	// orchestrator, including the wait for a free worker.
	AssessmentDuration metric.Float64Histogram

	// StageDuration tracks per-stage latency. Use with attribute:
	//   attribute.String("stage", ...)
	StageDuration metric.Float64Histogram

	// Assessments counts finished runs. Use with attribute:
	//   attribute.String("status", "completed" | "failed" | "timeout")
	Assessments metric.Int64Counter

	// LateResults counts worker results that arrived after their run had
	// already timed out and were discarded.
	LateResults metric.Int64Counter

	// PronunciationScore records the headline score of completed runs.
	PronunciationScore metric.Float64Histogram
}

// latencyBuckets are histogram boundaries (in seconds) sized for batch
// recognition of short utterances.
var latencyBuckets = []float64{
	0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// scoreBuckets split the 0–100 score range into deciles.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AssessmentDuration, err = m.Float64Histogram("enunciate.assessment.duration",
		metric.WithDescription("End-to-end latency of an assessment run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("enunciate.stage.duration",
		metric.WithDescription("Latency of a single pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Assessments, err = m.Int64Counter("enunciate.assessments",
		metric.WithDescription("Finished assessment runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.LateResults, err = m.Int64Counter("enunciate.late_results",
		metric.WithDescription("Worker results discarded because their run had timed out."),
	); err != nil {
		return nil, err
	}
	if met.PronunciationScore, err = m.Float64Histogram("enunciate.pronunciation.score",
		metric.WithDescription("Pronunciation score of completed runs."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStage records how long one pipeline stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(Attr("stage", stage)))
}

// RecordAssessment counts a finished run and records its latency.
func (m *Metrics) RecordAssessment(ctx context.Context, status string, d time.Duration) {
	attrs := metric.WithAttributes(Attr("status", status))
	m.Assessments.Add(ctx, 1, attrs)
	m.AssessmentDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordLateResult counts a discarded late worker result.
func (m *Metrics) RecordLateResult(ctx context.Context) {
	m.LateResults.Add(ctx, 1)
}

// RecordScore records the pronunciation score of a completed run.
func (m *Metrics) RecordScore(ctx context.Context, score float64) {
	m.PronunciationScore.Record(ctx, score)
}
