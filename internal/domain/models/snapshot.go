package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies the universe a snapshot was collected for.
type Category string

const (
	CategorySolana     Category = "coingecko"
	CategorySolMemes   Category = "coingecko-sol-memes"
	CategoryMemes      Category = "coingecko-memes"
	CategoryBenchmarks Category = "tradingview"
)

// Categories lists every asset universe that can be indexed.
var Categories = []Category{CategorySolana, CategorySolMemes, CategoryMemes}

// ParseCategory validates a raw category name. Benchmark rows are accepted too.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategorySolana, CategorySolMemes, CategoryMemes, CategoryBenchmarks:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// MarketID is the upstream CoinGecko category id used when ingesting.
func (c Category) MarketID() string {
	switch c {
	case CategorySolana:
		return "solana-ecosystem"
	case CategorySolMemes:
		return "solana-meme-coins"
	case CategoryMemes:
		return "meme-token"
	default:
		return ""
	}
}

// Snapshot is one asset observation for one calendar day.
type Snapshot struct {
	AssetID   string          `json:"asset_id"`
	Category  Category        `json:"category"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Price     decimal.Decimal `json:"price"`
	Volume24h decimal.Decimal `json:"volume_24h"`
	Date      time.Time       `json:"date"`
}

// Key is the idempotency key used by every store: asset, category and UTC day.
func (s Snapshot) Key() string {
	return fmt.Sprintf("%s#%s#%s", s.AssetID, s.Category, s.Date.UTC().Format(time.DateOnly))
}

// MarketListing is one row of the upstream markets listing.
type MarketListing struct {
	ID           string              `json:"id"`
	Image        string              `json:"image"`
	CurrentPrice decimal.NullDecimal `json:"current_price"`
	MarketCap    decimal.NullDecimal `json:"market_cap"`
	TotalVolume  decimal.NullDecimal `json:"total_volume"`
}

// Asset is display metadata kept per category.
type Asset struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Image    string   `json:"image"`
	Order    int      `json:"order"`
}

// SnapshotBatch is the unit published on the snapshots topic.
type SnapshotBatch struct {
	BatchID   string     `json:"batch_id"`
	Category  Category   `json:"category"`
	Snapshots []Snapshot `json:"snapshots"`
	Assets    []Asset    `json:"assets,omitempty"`
}
