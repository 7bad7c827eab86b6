// Package observability provides the pipeline metric instruments and the
// Prometheus scrape endpoint.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRecordsEmitted = "prism.records.emitted.total"
	metricRecordsDropped = "prism.records.dropped.total"
	metricPassChanged    = "prism.pass.changed.total"
	metricPassDuration   = "prism.pass.duration.seconds"

	attrRecordType = "record_type"
	attrReason     = "reason"
	attrPass       = "pass"
)

// passBucketBoundaries covers 10ms to 600s, from small incremental updates
// to full-history recomputations.
var passBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// PipelineMetrics holds the OTel instruments for the record pipeline. All
// methods are safe on a nil receiver, so callers without metrics wiring can
// simply pass nil.
type PipelineMetrics struct {
	recordsEmitted metric.Int64Counter
	recordsDropped metric.Int64Counter
	passChanged    metric.Int64Counter
	passDuration   metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		recordsEmitted: b.counter(metricRecordsEmitted, "Total number of records emitted by normalization", "{record}"),
		recordsDropped: b.counter(metricRecordsDropped, "Total number of records dropped during normalization", "{record}"),
		passChanged:    b.counter(metricPassChanged, "Total number of records changed per update pass", "{record}"),
		passDuration:   b.histogram(metricPassDuration, "Update pass duration in seconds", "s", passBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordEmitted counts one normalized record of the given type.
func (pm *PipelineMetrics) RecordEmitted(ctx context.Context, recordType string) {
	if pm == nil {
		return
	}

	pm.recordsEmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrRecordType, recordType),
	))
}

// RecordDropped counts one record dropped for the given reason.
func (pm *PipelineMetrics) RecordDropped(ctx context.Context, reason string) {
	if pm == nil {
		return
	}

	pm.recordsDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrReason, reason),
	))
}

// PassCompleted records one finished update pass with its change count and duration.
func (pm *PipelineMetrics) PassCompleted(ctx context.Context, pass string, changed int, duration time.Duration) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrPass, pass))

	pm.passChanged.Add(ctx, int64(changed), attrs)
	pm.passDuration.Record(ctx, duration.Seconds(), attrs)
}
