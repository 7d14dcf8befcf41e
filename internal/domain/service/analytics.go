package service

import (
	"context"
	"time"

	"catalytics/internal/domain/models"
)

// BenchmarkSource fetches an external benchmark series for a date range.
type BenchmarkSource interface {
	Fetch(ctx context.Context, start, end time.Time, benchmarkID string) (models.Series, error)
}

// BenchmarkFamily is a BenchmarkSource that knows which ids it can serve.
type BenchmarkFamily interface {
	BenchmarkSource
	Name() string
	Supports(benchmarkID string) bool
}
