package rsps

import (
	"fmt"
	"math"
	"sort"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/services/features"
	"catalytics/pkg/util"

	"github.com/shopspring/decimal"
)

// BenchmarkSeries pairs a configured benchmark with its fetched series.
type BenchmarkSeries struct {
	Benchmark models.Benchmark
	Series    models.Series
}

// Params controls a ranking run.
type Params struct {
	MinCap     decimal.Decimal
	MaxCap     decimal.Decimal
	TopN       int
	Excluded   map[string]struct{}
	Benchmarks []BenchmarkSeries
}

type observation struct {
	date  time.Time
	cap   decimal.Decimal
	price float64
}

type assetStats struct {
	id         string
	roc        []float64
	mean       float64
	std        float64
	relMean    float64
	relVol     float64
	rankByMean int
	rankByVol  int
}

// Rank computes the relative strength ranking of the assets in snapshots.
// Assets with any observation outside [MinCap, MaxCap] are dropped entirely;
// the remaining assets form the composite reference.
func Rank(snapshots []models.Snapshot, p Params) ([]models.RankedAsset, error) {
	if p.MinCap.GreaterThan(p.MaxCap) || p.TopN <= 0 {
		return []models.RankedAsset{}, nil
	}

	byAsset, order := partition(snapshots)
	kept := make([]string, 0, len(order))
	for _, id := range order {
		if withinBounds(byAsset[id], p.MinCap, p.MaxCap) {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return []models.RankedAsset{}, nil
	}

	refROC := features.RateOfChange(referenceSeries(byAsset, kept))
	refMean := features.Round2(features.Mean(refROC))
	refStd := features.Round2(features.StdDev(refROC))
	if refStd == 0 {
		return nil, fmt.Errorf("rank %d assets: %w", len(kept), models.ErrZeroReferenceVolatility)
	}

	stats := make([]*assetStats, 0, len(kept))
	for _, id := range kept {
		if _, skip := p.Excluded[id]; skip {
			continue
		}
		obs := byAsset[id]
		prices := make([]float64, len(obs))
		for j, o := range obs {
			prices[j] = o.price
		}
		st := &assetStats{id: id, roc: features.RateOfChange(prices)}
		st.mean = features.Round2(features.Mean(st.roc))
		st.std = features.Round2(features.StdDev(st.roc))
		st.relMean = math.NaN()
		if refMean != 0 {
			st.relMean = features.Round2((st.mean - refMean) / math.Abs(refMean) * 100)
		}
		st.relVol = features.Round2(st.std / refStd)
		stats = append(stats, st)
	}

	assignRanks(stats)

	sort.SliceStable(stats, func(i, j int) bool {
		si := stats[i].rankByMean + stats[i].rankByVol
		sj := stats[j].rankByMean + stats[j].rankByVol
		if si != sj {
			return si < sj
		}
		return stats[i].rankByMean < stats[j].rankByMean
	})
	if len(stats) > p.TopN {
		stats = stats[:p.TopN]
	}

	benchROC := make([][]float64, len(p.Benchmarks))
	for i, b := range p.Benchmarks {
		benchROC[i] = features.RateOfChange(b.Series.Sorted().Values())
	}

	out := make([]models.RankedAsset, 0, len(stats))
	for _, st := range stats {
		ra := models.RankedAsset{
			AssetID:            st.id,
			Mean:               stat(st.mean),
			Std:                stat(st.std),
			RelativeMean:       stat(st.relMean),
			RelativeVolatility: stat(st.relVol),
			SummedRank:         st.rankByMean + st.rankByVol,
			Betas:              make([]models.Beta, 0, len(p.Benchmarks)),
		}
		for i, b := range p.Benchmarks {
			ra.Betas = append(ra.Betas, models.Beta{Benchmark: b.Benchmark, Value: Beta(st.roc, benchROC[i])})
		}
		out = append(out, ra)
	}
	return out, nil
}

// Beta is |cov(asset, bench) / var(bench)| on ROC series that already exclude
// the undefined first step. Series of different lengths have zero covariance.
func Beta(assetROC, benchROC []float64) models.Stat {
	v := features.Variance(benchROC)
	if math.IsNaN(v) || v == 0 {
		return models.Stat{}
	}
	cov := 0.0
	if len(assetROC) == len(benchROC) {
		cov = features.Covariance(assetROC, benchROC)
	}
	return stat(math.Abs(features.Round2(cov / v)))
}

func partition(snapshots []models.Snapshot) (map[string][]observation, []string) {
	perDay := make(map[string]map[time.Time]observation)
	var order []string
	for _, s := range snapshots {
		days, ok := perDay[s.AssetID]
		if !ok {
			days = make(map[time.Time]observation)
			perDay[s.AssetID] = days
			order = append(order, s.AssetID)
		}
		d := util.Day(s.Date)
		days[d] = observation{date: d, cap: s.MarketCap, price: s.Price.InexactFloat64()}
	}
	out := make(map[string][]observation, len(perDay))
	for id, days := range perDay {
		obs := make([]observation, 0, len(days))
		for _, o := range days {
			obs = append(obs, o)
		}
		sort.Slice(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })
		out[id] = obs
	}
	return out, order
}

func withinBounds(obs []observation, min, max decimal.Decimal) bool {
	for _, o := range obs {
		if o.cap.LessThan(min) || o.cap.GreaterThan(max) {
			return false
		}
	}
	return true
}

// referenceSeries sums market caps per day across the kept assets, ascending by day.
func referenceSeries(byAsset map[string][]observation, kept []string) []float64 {
	sums := make(map[time.Time]decimal.Decimal)
	for _, id := range kept {
		for _, o := range byAsset[id] {
			sums[o.date] = sums[o.date].Add(o.cap)
		}
	}
	days := make([]time.Time, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = sums[d].InexactFloat64()
	}
	return out
}

// assignRanks sets zero-based descending ranks by relative mean and relative
// volatility. Undefined values sort last; ties keep first-seen order.
func assignRanks(stats []*assetStats) {
	ranked := make([]*assetStats, len(stats))

	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool { return descending(ranked[i].relMean, ranked[j].relMean) })
	for i, st := range ranked {
		st.rankByMean = i
	}

	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool { return descending(ranked[i].relVol, ranked[j].relVol) })
	for i, st := range ranked {
		st.rankByVol = i
	}
}

func descending(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}

func stat(v float64) models.Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Stat{}
	}
	return models.DefinedStat(v)
}
