package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Point is a single dated observation of a numeric series.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is a date-keyed numeric series. Producers are not required to sort it.
type Series []Point

// Sorted returns a copy ordered by ascending date.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Values returns the values in their current order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// IndexPoint is one day of the aggregate market-cap index.
type IndexPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// IndexSeries is ordered by ascending date.
type IndexSeries []IndexPoint

// Float converts the index to a float series for rebasing and correlation.
func (s IndexSeries) Float() Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = Point{Date: p.Date, Value: p.Value.InexactFloat64()}
	}
	return out
}

// ParticipationRecord reports how often an asset made it into the rank window.
type ParticipationRecord struct {
	AssetID          string
	Percentage       float64
	DaysParticipated int
	Icon             *string
}

// Correlation is a Pearson coefficient in [-1, 1], or undefined.
type Correlation struct {
	Value   float64
	Defined bool
}

// Stat is a rounded statistic that may be undefined (NaN in the legacy output).
type Stat struct {
	Value   float64
	Defined bool
}

// DefinedStat wraps a value known to be finite.
func DefinedStat(v float64) Stat { return Stat{Value: v, Defined: true} }

// Benchmark names an external series used for beta. Label is the output suffix.
type Benchmark struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Beta is the systematic-risk measure of an asset against one benchmark.
type Beta struct {
	Benchmark Benchmark
	Value     Stat
}

// RankedAsset is one row of the RSPS ranking.
type RankedAsset struct {
	AssetID            string
	Mean               Stat
	Std                Stat
	RelativeMean       Stat
	RelativeVolatility Stat
	SummedRank         int
	Betas              []Beta
}

// BenchmarkCorrelation groups a benchmark series with its rolling correlations
// against the index, both raw and base indexed.
type BenchmarkCorrelation struct {
	BenchmarkID        string
	Data               Series
	BaseIndexed        Series
	BaseIndexedDefined bool
	Raw                map[int]Correlation
	Rebased            map[int]Correlation
}

// IndexResult is the combined output of an index build.
type IndexResult struct {
	Series             IndexSeries
	BaseIndexed        Series
	BaseIndexedDefined bool
	Participation      []ParticipationRecord
	Correlations       []BenchmarkCorrelation
}
