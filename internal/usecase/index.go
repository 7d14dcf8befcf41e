package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
	"catalytics/internal/domain/service"
	"catalytics/internal/services/features"
	"catalytics/internal/services/index"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/util"
)

// DefaultCorrelationWindows are the rolling windows reported per benchmark.
var DefaultCorrelationWindows = []int{15, 30, 60, 90, 120}

type IndexParams struct {
	Category   models.Category
	Start      time.Time
	End        time.Time
	Window     index.Window
	Excluded   []string
	Benchmarks []string
}

// IndexUseCase builds the market-cap index of a category and correlates it
// against the requested benchmarks.
type IndexUseCase struct {
	snapshots drepo.SnapshotSource
	assets    drepo.AssetCatalog
	bench     service.BenchmarkSource
	metrics   drepo.Metrics
	windows   []int
	log       *applogger.Logger
}

func NewIndexUseCase(
	snapshots drepo.SnapshotSource,
	assets drepo.AssetCatalog,
	bench service.BenchmarkSource,
	metrics drepo.Metrics,
	windows []int,
	log *applogger.Logger,
) *IndexUseCase {
	if len(windows) == 0 {
		windows = DefaultCorrelationWindows
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &IndexUseCase{
		snapshots: snapshots,
		assets:    assets,
		bench:     bench,
		metrics:   metrics,
		windows:   windows,
		log:       log,
	}
}

// Windows returns the configured correlation windows in report order.
func (uc *IndexUseCase) Windows() []int { return uc.windows }

func (uc *IndexUseCase) BuildIndex(ctx context.Context, p IndexParams) (models.IndexResult, error) {
	if p.Start.IsZero() || p.End.IsZero() {
		return models.IndexResult{}, fmt.Errorf("start and end dates: %w", models.ErrMissingParameter)
	}
	start := time.Now()

	snaps, err := uc.snapshots.FetchSnapshots(ctx, p.Start, p.End, p.Category)
	if err != nil {
		uc.metrics.RecordError("index_fetch")
		return models.IndexResult{}, fmt.Errorf("fetch snapshots: %w", err)
	}

	series, participation := index.Build(snaps, p.Window, util.Set(p.Excluded))
	if uc.assets != nil && len(participation) > 0 {
		assets, err := uc.assets.ListAssets(ctx, p.Category)
		if err != nil {
			uc.log.Warn("list assets for icons", applogger.String("category", string(p.Category)), applogger.Error(err))
		} else {
			index.AttachIcons(participation, assets)
		}
	}

	res := models.IndexResult{
		Series:        series,
		Participation: participation,
	}
	indexFloat := series.Float()
	if rebased, err := features.Rebase(indexFloat); err != nil {
		uc.log.Warn("index not rebased", applogger.String("category", string(p.Category)), applogger.Error(err))
	} else {
		res.BaseIndexed = rebased
		res.BaseIndexedDefined = true
	}

	for _, id := range p.Benchmarks {
		bc, err := uc.correlate(ctx, p, id, indexFloat, res)
		if errors.Is(err, models.ErrUnknownBenchmark) {
			uc.log.Warn("benchmark skipped", applogger.String("benchmark", id))
			uc.metrics.RecordBenchmarkSkipped(id)
			continue
		}
		if err != nil {
			uc.metrics.RecordError("index_benchmark")
			return models.IndexResult{}, err
		}
		res.Correlations = append(res.Correlations, bc)
	}

	uc.metrics.RecordLatency("build_index", time.Since(start).Seconds())
	return res, nil
}

func (uc *IndexUseCase) correlate(ctx context.Context, p IndexParams, id string, indexFloat models.Series, res models.IndexResult) (models.BenchmarkCorrelation, error) {
	data, err := uc.bench.Fetch(ctx, p.Start, p.End, id)
	if err != nil {
		return models.BenchmarkCorrelation{}, fmt.Errorf("benchmark %s: %w", id, err)
	}
	bc := models.BenchmarkCorrelation{
		BenchmarkID: id,
		Data:        data.Sorted(),
		Raw:         make(map[int]models.Correlation, len(uc.windows)),
		Rebased:     make(map[int]models.Correlation, len(uc.windows)),
	}
	if rebased, err := features.Rebase(data); err != nil {
		uc.log.Debug("benchmark not rebased", applogger.String("benchmark", id), applogger.Error(err))
	} else {
		bc.BaseIndexed = rebased
		bc.BaseIndexedDefined = true
	}

	for _, w := range uc.windows {
		bc.Raw[w] = features.RollingCorrelation(indexFloat, data, w)
		if res.BaseIndexedDefined && bc.BaseIndexedDefined {
			bc.Rebased[w] = features.RollingCorrelation(res.BaseIndexed, bc.BaseIndexed, w)
		} else {
			bc.Rebased[w] = models.Correlation{}
		}
	}
	return bc, nil
}
