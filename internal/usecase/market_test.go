package usecase

import (
	"context"
	"testing"

	"catalytics/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationComputeKeyed(t *testing.T) {
	uc := NewCorrelationUseCase()
	a := map[string]float64{"2024-01-01": 1, "2024-01-02": 2, "2024-01-03": 4, "2024-01-04": 3}
	b := map[string]float64{"2024-01-01 00:00:00": 2, "2024-01-02T00:00:00Z": 4, "2024-01-03": 8, "2024-01-04": 6}

	c, err := uc.ComputeKeyed(a, b, 4)
	require.NoError(t, err)
	require.True(t, c.Defined)
	assert.InDelta(t, 1.0, c.Value, 1e-9)

	c, err = uc.ComputeKeyed(a, b, 5)
	require.NoError(t, err)
	assert.False(t, c.Defined)

	_, err = uc.ComputeKeyed(map[string]float64{"yesterday": 1}, b, 2)
	assert.ErrorIs(t, err, models.ErrMalformedDate)
}

func TestMarketPriceChart(t *testing.T) {
	store := newMemStore()
	snaps := []models.Snapshot{
		{AssetID: "solana", Category: models.CategorySolana, Price: decimal.NewFromInt(101), MarketCap: decimal.NewFromInt(1), Date: day(1)},
		{AssetID: "solana", Category: models.CategorySolana, Price: decimal.NewFromInt(100), MarketCap: decimal.NewFromInt(1), Date: day(0)},
		{AssetID: "solana", Category: models.CategoryMemes, Price: decimal.NewFromInt(5), MarketCap: decimal.NewFromInt(1), Date: day(0)},
	}
	require.NoError(t, store.StoreBatch(context.Background(), snaps))
	uc := NewMarketUseCase(store, store)

	s, err := uc.PriceChart(context.Background(), "solana", day(0), day(5))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 100.0, s[0].Value)
	assert.Equal(t, 101.0, s[1].Value)

	_, err = uc.PriceChart(context.Background(), "", day(0), day(5))
	assert.ErrorIs(t, err, models.ErrMissingParameter)
}

func TestMarketAssets(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertAssets(context.Background(), []models.Asset{
		{ID: "bonk", Category: models.CategorySolMemes, Order: 1},
		{ID: "doge", Category: models.CategoryMemes, Order: 1},
	}))
	uc := NewMarketUseCase(store, store)

	assets, err := uc.Assets(context.Background(), models.CategorySolMemes)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "bonk", assets[0].ID)
}
