package ports

import (
	"context"

	"assesstime/domain/run"
)

// ResultWriterPort persists the outputs of one pipeline run
type ResultWriterPort interface {
	WriteResult(ctx context.Context, result *run.Result) ([]string, error)
}

// MetricsPort publishes funnel and ingestion counters for one run
type MetricsPort interface {
	Observe(result *run.Result) error
}
