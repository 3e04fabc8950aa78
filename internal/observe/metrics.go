// Package observe provides application-wide observability primitives for
// starcue: OpenTelemetry metrics, tracing helpers, trace-aware logging and the
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped via a
// Prometheus exporter bridge set up by [InitProvider]. Library code that has
// no [Metrics] injected may use [DefaultMetrics]; tests should use
// [NewMetrics] with their own [metric.MeterProvider].
package observe

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all starcue metrics.
const meterName = "github.com/MrWong99/starcue"

// Metrics holds every OpenTelemetry instrument starcue records. All fields are
// safe for concurrent use.
type Metrics struct {
	// Transcripts counts recognition results fed into listening sessions.
	// Attributes: source (stt|ws|cli), final (true|false).
	Transcripts metric.Int64Counter

	// SlotLocks counts category locks. Attribute: category.
	SlotLocks metric.Int64Counter

	// Completions counts sessions that locked all three categories.
	Completions metric.Int64Counter

	// PartialResets counts partial sessions cleared by the silence timeout.
	PartialResets metric.Int64Counter

	// STTRestarts counts speech streams reopened after ending unexpectedly.
	STTRestarts metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Attributes: tool, status.
	ToolCalls metric.Int64Counter

	// ReadingWrites counts reading-log inserts. Attribute: status.
	ReadingWrites metric.Int64Counter

	// ActiveSessions tracks the number of live listening sessions.
	ActiveSessions metric.Int64UpDownCounter

	// IngestDuration tracks how long one transcript takes to scan.
	IngestDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time.
	// Attributes: method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// ingestBuckets are histogram boundaries in seconds. Scanning a transcript is
// a sub-millisecond operation; anything above 10ms is worth seeing.
var ingestBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Transcripts, err = m.Int64Counter("starcue.transcripts",
		metric.WithDescription("Recognition results ingested by source and finality."),
	); err != nil {
		return nil, err
	}
	if met.SlotLocks, err = m.Int64Counter("starcue.slot.locks",
		metric.WithDescription("Category slots locked, by category."),
	); err != nil {
		return nil, err
	}
	if met.Completions, err = m.Int64Counter("starcue.completions",
		metric.WithDescription("Listening sessions that produced a reading."),
	); err != nil {
		return nil, err
	}
	if met.PartialResets, err = m.Int64Counter("starcue.partial.resets",
		metric.WithDescription("Partial sessions cleared after silence."),
	); err != nil {
		return nil, err
	}
	if met.STTRestarts, err = m.Int64Counter("starcue.stt.restarts",
		metric.WithDescription("Speech streams reopened after ending."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("starcue.tool.calls",
		metric.WithDescription("MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ReadingWrites, err = m.Int64Counter("starcue.readinglog.writes",
		metric.WithDescription("Reading log inserts by status."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("starcue.active_sessions",
		metric.WithDescription("Number of live listening sessions."),
	); err != nil {
		return nil, err
	}

	if met.IngestDuration, err = m.Float64Histogram("starcue.ingest.duration",
		metric.WithDescription("Time spent scanning one transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ingestBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("starcue.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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
// first call from [otel.GetMeterProvider]. Panics if instrument creation fails.
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

// RecordTranscript counts one ingested recognition result.
func (m *Metrics) RecordTranscript(ctx context.Context, source string, final bool) {
	m.Transcripts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("final", strconv.FormatBool(final)),
		),
	)
}

// RecordLock counts one slot lock.
func (m *Metrics) RecordLock(ctx context.Context, category string) {
	m.SlotLocks.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// RecordToolCall counts one MCP tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordReadingWrite counts one reading-log insert.
func (m *Metrics) RecordReadingWrite(ctx context.Context, status string) {
	m.ReadingWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
