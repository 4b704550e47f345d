// Package telemetry provides OpenTelemetry instrumentation for sync runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// SyncMetricsMeterName is the name used for the sync metrics meter.
const SyncMetricsMeterName = "github.com/custodia-labs/notesync/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	syncRuns     metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"notesync_sync_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	syncRuns, err := meter.Int64Counter(
		"notesync_sync_runs_total",
		metric.WithDescription("Number of finished sync runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		syncRuns:     syncRuns,
	}, nil
}

// RecordRun records the duration and outcome of a finished run.
func (m *SyncMetrics) RecordRun(ctx context.Context, outcome domain.SyncOutcome, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome.String()))
	m.syncDuration.Record(ctx, duration.Seconds(), attrs)
	m.syncRuns.Add(ctx, 1, attrs)
}
