package usecase

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
)

// MarketUseCase serves raw price history and asset metadata.
type MarketUseCase struct {
	prices drepo.PriceSource
	assets drepo.AssetCatalog
}

func NewMarketUseCase(prices drepo.PriceSource, assets drepo.AssetCatalog) *MarketUseCase {
	return &MarketUseCase{prices: prices, assets: assets}
}

// PriceChart returns an asset's daily price in the coingecko category.
func (uc *MarketUseCase) PriceChart(ctx context.Context, assetID string, start, end time.Time) (models.Series, error) {
	if assetID == "" {
		return nil, fmt.Errorf("asset: %w", models.ErrMissingParameter)
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("start and end dates: %w", models.ErrMissingParameter)
	}
	s, err := uc.prices.FetchPrices(ctx, assetID, models.CategorySolana, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch prices %s: %w", assetID, err)
	}
	return s.Sorted(), nil
}

func (uc *MarketUseCase) Assets(ctx context.Context, category models.Category) ([]models.Asset, error) {
	assets, err := uc.assets.ListAssets(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list assets %s: %w", category, err)
	}
	return assets, nil
}
