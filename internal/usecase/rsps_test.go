package usecase

import (
	"context"
	"testing"
	"time"

	"catalytics/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(id string, caps []int64, prices []string) []models.Snapshot {
	out := make([]models.Snapshot, len(caps))
	for i := range caps {
		out[i] = models.Snapshot{
			AssetID:   id,
			Category:  models.CategoryMemes,
			MarketCap: decimal.NewFromInt(caps[i]),
			Price:     decimal.RequireFromString(prices[i]),
			Date:      day(i),
		}
	}
	return out
}

func rspsFixture() *fakeSnapshots {
	var s []models.Snapshot
	s = append(s, priced("A", []int64{1_000_000, 1_200_000, 1_100_000, 1_500_000}, []string{"1", "1.2", "1.1", "1.5"})...)
	s = append(s, priced("B", []int64{2_000_000, 2_100_000, 2_600_000, 2_400_000}, []string{"2", "2.1", "2.6", "2.4"})...)
	s = append(s, priced("C", []int64{3_000_000, 2_700_000, 2_900_000, 3_300_000}, []string{"3", "2.7", "2.9", "3.3"})...)
	s = append(s, priced("D", []int64{1_000_000, 6_000_000, 1_000_000, 1_000_000}, []string{"1", "6", "1", "1"})...)
	return &fakeSnapshots{snaps: s}
}

func rspsParams() RSPSParams {
	return RSPSParams{
		Category: models.CategoryMemes,
		Start:    day(0),
		End:      day(3),
		MinCap:   decimal.Zero,
		MaxCap:   decimal.NewFromInt(5_000_000),
		TopN:     10,
	}
}

func TestRSPSComputeSkipsUnknownBenchmarks(t *testing.T) {
	bench := &fakeBench{series: map[string]models.Series{
		"btc": {{Date: day(0), Value: 1}, {Date: day(1), Value: 1.2}, {Date: day(2), Value: 1.1}, {Date: day(3), Value: 1.5}},
	}}
	m := newFakeMetrics()
	benchmarks := []models.Benchmark{{ID: "btc", Label: "btc"}, {ID: "nope", Label: "nope"}}
	uc := NewRSPSUseCase(rspsFixture(), bench, m, benchmarks, nil)

	got, err := uc.Compute(context.Background(), rspsParams())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].AssetID)
	require.Len(t, got[0].Betas, 1)
	assert.InDelta(t, 1.0, got[0].Betas[0].Value.Value, 1e-9)
	assert.Equal(t, []string{"nope"}, m.skipped)
	assert.Equal(t, benchmarks, uc.Benchmarks())
}

func TestRSPSComputeZeroReferenceVolatility(t *testing.T) {
	src := &fakeSnapshots{snaps: priced("A", []int64{100, 200, 400, 800}, []string{"1", "2", "3", "4"})}
	m := newFakeMetrics()
	uc := NewRSPSUseCase(src, &fakeBench{}, m, nil, nil)

	p := rspsParams()
	p.MaxCap = decimal.NewFromInt(1000)
	_, err := uc.Compute(context.Background(), p)
	assert.ErrorIs(t, err, models.ErrZeroReferenceVolatility)
	assert.Contains(t, m.errors, "rsps_rank")
}

func TestRSPSComputeRequiresDates(t *testing.T) {
	uc := NewRSPSUseCase(rspsFixture(), &fakeBench{}, newFakeMetrics(), nil, nil)
	p := rspsParams()
	p.Start = time.Time{}
	_, err := uc.Compute(context.Background(), p)
	assert.ErrorIs(t, err, models.ErrMissingParameter)
}
