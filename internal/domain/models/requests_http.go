package models

// Requests for analytics HTTP endpoints. Optional integers are kept as strings so
// an explicit zero is distinguishable from an absent value.

type IndexRequest struct {
	Category           string `param:"category" validate:"required,oneof=coingecko coingecko-sol-memes coingecko-memes"`
	StartDate          string `query:"start_date" json:"start_date" validate:"required"`
	EndDate            string `query:"end_date" json:"end_date" validate:"required"`
	IndexStart         string `query:"index_start" json:"index_start" default:"0"`
	IndexEnd           string `query:"index_end" json:"index_end" default:"9"`
	ExcludeIDs         string `query:"exclude_ids" json:"exclude_ids"`
	CorrelationCoinIDs string `query:"correlation_coin_ids" json:"correlation_coin_ids"`
}

type RSPSRequest struct {
	StartDate    string `query:"start_date" json:"start_date" validate:"required"`
	EndDate      string `query:"end_date" json:"end_date" validate:"required"`
	MinMarketCap string `query:"min_market_cap" json:"min_market_cap" default:"0"`
	MaxMarketCap string `query:"max_market_cap" json:"max_market_cap" default:"1000000000000000"`
	Results      int    `query:"results" json:"results" default:"10" validate:"gte=1,lte=1000"`
	Excluded     string `query:"excluded" json:"excluded"`
	Category     string `query:"category" json:"category" default:"coingecko-memes" validate:"oneof=coingecko coingecko-sol-memes coingecko-memes"`
}

type CorrelationRequest struct {
	SeriesA map[string]float64 `json:"series_a" validate:"required"`
	SeriesB map[string]float64 `json:"series_b" validate:"required"`
	Window  int                `json:"window" default:"30" validate:"gte=2,lte=3650"`
}

type PriceChartRequest struct {
	Asset     string `param:"asset" validate:"required"`
	StartDate string `query:"start_date" json:"start_date" validate:"required"`
	EndDate   string `query:"end_date" json:"end_date" validate:"required"`
}

type AssetsRequest struct {
	Category string `param:"category" validate:"required,oneof=coingecko coingecko-sol-memes coingecko-memes"`
}
