package ports

import (
	"context"
	"time"
)

// Metrics records business level measurements of the ingestion pipeline
type Metrics interface {
	// RecordIngestion records one item outcome: saved, partial, failed or unsupported
	RecordIngestion(ctx context.Context, category, outcome string, duration time.Duration)

	// RecordGroup records a finalized media group
	RecordGroup(ctx context.Context, uniqueItems, failed int)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordIngestion(ctx context.Context, category, outcome string, duration time.Duration) {
}

func (NoopMetrics) RecordGroup(ctx context.Context, uniqueItems, failed int) {}
