package usecase

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/util"
)

const (
	BackendDirect = "direct"
	BackendKafka  = "kafka"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Category models.Category `json:"category"`
	Date     time.Time       `json:"date"`
	Listed   int             `json:"listed"`
	Stored   int             `json:"stored"`
	Skipped  int             `json:"skipped"`
	Backend  string          `json:"backend"`
}

// IngestProcessor pulls a category's market listing and routes the resulting
// snapshots to the configured backend.
type IngestProcessor struct {
	market  drepo.MarketData
	store   drepo.SnapshotStore
	pub     drepo.SnapshotPublisher
	metrics drepo.Metrics
	backend string
	log     *applogger.Logger
	now     func() time.Time
}

func NewIngestProcessor(
	market drepo.MarketData,
	store drepo.SnapshotStore,
	pub drepo.SnapshotPublisher,
	metrics drepo.Metrics,
	backend string,
	log *applogger.Logger,
) *IngestProcessor {
	if backend == "" {
		backend = BackendDirect
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &IngestProcessor{
		market:  market,
		store:   store,
		pub:     pub,
		metrics: metrics,
		backend: backend,
		log:     log,
		now:     time.Now,
	}
}

// Ingest fetches every listing of category and stores one snapshot per asset
// dated day. A zero day means today in UTC.
func (p *IngestProcessor) Ingest(ctx context.Context, category models.Category, day time.Time) (IngestReport, error) {
	if category.MarketID() == "" {
		return IngestReport{}, fmt.Errorf("ingest: %w: %q", models.ErrUnknownCategory, category)
	}
	if day.IsZero() {
		day = p.now()
	}
	day = util.Day(day)
	start := time.Now()

	listings, err := p.market.FetchMarkets(ctx, category)
	if err != nil {
		p.metrics.RecordError("ingest_fetch")
		return IngestReport{}, fmt.Errorf("fetch markets %s: %w", category, err)
	}

	snaps, assets := toSnapshots(listings, category, day)
	rep := IngestReport{
		Category: category,
		Date:     day,
		Listed:   len(listings),
		Stored:   len(snaps),
		Skipped:  len(listings) - len(snaps),
		Backend:  p.backend,
	}
	if len(snaps) == 0 {
		p.log.Warn("nothing to ingest", applogger.String("category", string(category)), applogger.Int("listed", rep.Listed))
		return rep, nil
	}

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, snaps, assets)
	case BackendDirect:
		err = p.Store(ctx, snaps, assets)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("ingest_" + p.backend)
		return rep, fmt.Errorf("ingest %s: %w", category, err)
	}

	p.metrics.RecordSnapshotsIngested(string(category), len(snaps))
	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	p.log.Info("category ingested",
		applogger.String("category", string(category)),
		applogger.String("date", util.DayKey(day)),
		applogger.String("backend", p.backend),
		applogger.Int("stored", rep.Stored),
		applogger.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// Store writes snapshots and asset metadata straight to the snapshot store.
func (p *IngestProcessor) Store(ctx context.Context, snaps []models.Snapshot, assets []models.Asset) error {
	if err := p.store.StoreBatch(ctx, snaps); err != nil {
		return fmt.Errorf("store snapshots: %w", err)
	}
	if len(assets) == 0 {
		return nil
	}
	if err := p.store.UpsertAssets(ctx, assets); err != nil {
		return fmt.Errorf("upsert assets: %w", err)
	}
	return nil
}

// toSnapshots drops listings without a positive market cap. Order is the
// 1-based position among the kept listings.
func toSnapshots(listings []models.MarketListing, category models.Category, day time.Time) ([]models.Snapshot, []models.Asset) {
	snaps := make([]models.Snapshot, 0, len(listings))
	assets := make([]models.Asset, 0, len(listings))
	for _, l := range listings {
		if l.ID == "" || !l.MarketCap.Valid || !l.MarketCap.Decimal.IsPositive() {
			continue
		}
		snaps = append(snaps, models.Snapshot{
			AssetID:   l.ID,
			Category:  category,
			MarketCap: l.MarketCap.Decimal,
			Price:     l.CurrentPrice.Decimal,
			Volume24h: l.TotalVolume.Decimal,
			Date:      day,
		})
		assets = append(assets, models.Asset{
			ID:       l.ID,
			Category: category,
			Image:    l.Image,
			Order:    len(assets) + 1,
		})
	}
	return snaps, assets
}

