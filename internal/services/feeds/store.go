package feeds

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
)

// TradingViewIDs are the market-wide benchmarks stored under the tradingview category.
var TradingViewIDs = []string{"total", "total2", "total3", "others.d", "btc", "eth"}

// StoreFamily serves benchmarks that live in the snapshot store as price rows.
type StoreFamily struct {
	name     string
	category models.Category
	// aliases maps a benchmark id to the stored asset id.
	aliases map[string]string
	prices  drepo.PriceSource
}

// NewTradingView serves the tradingview market benchmarks.
func NewTradingView(prices drepo.PriceSource) *StoreFamily {
	aliases := make(map[string]string, len(TradingViewIDs))
	for _, id := range TradingViewIDs {
		aliases[id] = id
	}
	return &StoreFamily{name: "tradingview", category: models.CategoryBenchmarks, aliases: aliases, prices: prices}
}

// NewCoinGeckoPrice serves "Solana" from the coingecko category price rows.
func NewCoinGeckoPrice(prices drepo.PriceSource) *StoreFamily {
	return &StoreFamily{
		name:     "coingecko",
		category: models.CategorySolana,
		aliases:  map[string]string{"Solana": "solana"},
		prices:   prices,
	}
}

func (f *StoreFamily) Name() string { return f.name }

func (f *StoreFamily) Supports(id string) bool {
	_, ok := f.aliases[id]
	return ok
}

func (f *StoreFamily) Fetch(ctx context.Context, start, end time.Time, id string) (models.Series, error) {
	asset, ok := f.aliases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not serve %q", models.ErrUnknownBenchmark, f.name, id)
	}
	s, err := f.prices.FetchPrices(ctx, asset, f.category, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", f.name, id, err)
	}
	return s.Sorted(), nil
}
