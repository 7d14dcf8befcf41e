package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
	"catalytics/internal/domain/service"
	"catalytics/internal/services/rsps"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/util"

	"github.com/shopspring/decimal"
)

type RSPSParams struct {
	Category models.Category
	Start    time.Time
	End      time.Time
	MinCap   decimal.Decimal
	MaxCap   decimal.Decimal
	TopN     int
	Excluded []string
}

// RSPSUseCase ranks a category by relative strength against its own composite
// and reports beta against the configured benchmarks.
type RSPSUseCase struct {
	snapshots  drepo.SnapshotSource
	bench      service.BenchmarkSource
	metrics    drepo.Metrics
	benchmarks []models.Benchmark
	log        *applogger.Logger
}

func NewRSPSUseCase(
	snapshots drepo.SnapshotSource,
	bench service.BenchmarkSource,
	metrics drepo.Metrics,
	benchmarks []models.Benchmark,
	log *applogger.Logger,
) *RSPSUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &RSPSUseCase{
		snapshots:  snapshots,
		bench:      bench,
		metrics:    metrics,
		benchmarks: benchmarks,
		log:        log,
	}
}

// Benchmarks returns the benchmarks every ranked row carries a beta for.
func (uc *RSPSUseCase) Benchmarks() []models.Benchmark { return uc.benchmarks }

func (uc *RSPSUseCase) Compute(ctx context.Context, p RSPSParams) ([]models.RankedAsset, error) {
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, fmt.Errorf("start and end dates: %w", models.ErrMissingParameter)
	}
	start := time.Now()

	snaps, err := uc.snapshots.FetchSnapshots(ctx, p.Start, p.End, p.Category)
	if err != nil {
		uc.metrics.RecordError("rsps_fetch")
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	series := make([]rsps.BenchmarkSeries, 0, len(uc.benchmarks))
	for _, b := range uc.benchmarks {
		s, err := uc.bench.Fetch(ctx, p.Start, p.End, b.ID)
		if errors.Is(err, models.ErrUnknownBenchmark) {
			uc.log.Warn("benchmark skipped", applogger.String("benchmark", b.ID))
			uc.metrics.RecordBenchmarkSkipped(b.ID)
			continue
		}
		if err != nil {
			uc.metrics.RecordError("rsps_benchmark")
			return nil, fmt.Errorf("benchmark %s: %w", b.ID, err)
		}
		series = append(series, rsps.BenchmarkSeries{Benchmark: b, Series: s})
	}

	ranked, err := rsps.Rank(snaps, rsps.Params{
		MinCap:     p.MinCap,
		MaxCap:     p.MaxCap,
		TopN:       p.TopN,
		Excluded:   util.Set(p.Excluded),
		Benchmarks: series,
	})
	if err != nil {
		uc.metrics.RecordError("rsps_rank")
		return nil, err
	}
	uc.metrics.RecordLatency("rsps", time.Since(start).Seconds())
	return ranked, nil
}
