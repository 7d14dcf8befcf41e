package repository

import (
	"context"
	"time"

	"catalytics/internal/domain/models"
)

// SnapshotSource supplies daily asset records for a date range and category.
type SnapshotSource interface {
	FetchSnapshots(ctx context.Context, start, end time.Time, category models.Category) ([]models.Snapshot, error)
}

// PriceSource supplies a single asset's daily price within a category.
type PriceSource interface {
	FetchPrices(ctx context.Context, assetID string, category models.Category, start, end time.Time) (models.Series, error)
}

// AssetCatalog holds per-category display metadata.
type AssetCatalog interface {
	ListAssets(ctx context.Context, category models.Category) ([]models.Asset, error)
	UpsertAssets(ctx context.Context, assets []models.Asset) error
}

// SnapshotStore is the persistent backing of SnapshotSource. Writes are idempotent
// on (asset, category, day).
type SnapshotStore interface {
	SnapshotSource
	PriceSource
	AssetCatalog
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, snapshots []models.Snapshot) error
	Health(ctx context.Context) error
	Close() error
}

// SnapshotPublisher forwards ingested snapshots to an asynchronous writer.
type SnapshotPublisher interface {
	PublishBatch(ctx context.Context, snapshots []models.Snapshot, assets []models.Asset) error
	Close() error
}

// MarketData is an upstream listing of assets for a category.
type MarketData interface {
	FetchMarkets(ctx context.Context, category models.Category) ([]models.MarketListing, error)
}

type Metrics interface {
	RecordSnapshotsIngested(category string, n int)
	RecordBenchmarkSkipped(benchmark string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
