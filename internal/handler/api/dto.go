package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"catalytics/internal/domain/models"
	"catalytics/pkg/util"
)

// undefinedCorrelation is the legacy wire value of an undefined correlation.
const undefinedCorrelation = 2.0

// undefinedStat is the legacy wire value of an undefined statistic.
const undefinedStat = "-"

type ParticipationDTO struct {
	Coin             string  `json:"coin"`
	Percentage       float64 `json:"percentage"`
	DaysParticipated int     `json:"days_participated"`
	Icon             *string `json:"icon"`
}

type IndexResponse struct {
	MarketCapSums            map[string]json.Number    `json:"market_cap_sums"`
	MarketCapSumsBaseIndexed map[string]float64        `json:"market_cap_sums_base_indexed"`
	Participation            []ParticipationDTO        `json:"participation"`
	CorrelationData          map[string]map[string]any `json:"correlation_data"`
}

type CorrelationResponse struct {
	Correlation float64 `json:"correlation"`
}

func newIndexResponse(res models.IndexResult, windows []int) IndexResponse {
	out := IndexResponse{
		MarketCapSums:   make(map[string]json.Number, len(res.Series)),
		Participation:   make([]ParticipationDTO, 0, len(res.Participation)),
		CorrelationData: make(map[string]map[string]any, len(res.Correlations)),
	}
	for _, p := range res.Series {
		out.MarketCapSums[util.DayKey(p.Date)] = json.Number(p.Value.String())
	}
	if res.BaseIndexedDefined {
		out.MarketCapSumsBaseIndexed = seriesMap(res.BaseIndexed)
	}
	for _, p := range res.Participation {
		out.Participation = append(out.Participation, ParticipationDTO{
			Coin:             p.AssetID,
			Percentage:       p.Percentage,
			DaysParticipated: p.DaysParticipated,
			Icon:             p.Icon,
		})
	}
	for _, bc := range res.Correlations {
		entry := map[string]any{
			"data":              seriesMap(bc.Data),
			"base_indexed_data": nil,
		}
		if bc.BaseIndexedDefined {
			entry["base_indexed_data"] = seriesMap(bc.BaseIndexed)
		}
		for _, w := range windows {
			entry[fmt.Sprintf("correlation%d", w)] = correlationValue(bc.Raw[w])
			entry[fmt.Sprintf("correlation%d_base_indexed", w)] = correlationValue(bc.Rebased[w])
		}
		out.CorrelationData[bc.BenchmarkID] = entry
	}
	return out
}

func seriesMap(s models.Series) map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, p := range s {
		out[util.DayKey(p.Date)] = p.Value
	}
	return out
}

func correlationValue(c models.Correlation) float64 {
	if !c.Defined {
		return undefinedCorrelation
	}
	return c.Value
}

func statValue(s models.Stat) any {
	if !s.Defined {
		return undefinedStat
	}
	return s.Value
}

// newRSPSRows renders ranked assets with one beta_<label> key per benchmark.
func newRSPSRows(ranked []models.RankedAsset) []map[string]any {
	rows := make([]map[string]any, 0, len(ranked))
	for _, r := range ranked {
		row := map[string]any{
			"coin_name":           r.AssetID,
			"mean":                statValue(r.Mean),
			"std":                 statValue(r.Std),
			"relative_mean":       statValue(r.RelativeMean),
			"relative_volatility": statValue(r.RelativeVolatility),
		}
		for _, b := range r.Betas {
			row["beta_"+strings.ReplaceAll(b.Benchmark.Label, ".", "_")] = statValue(b.Value)
		}
		rows = append(rows, row)
	}
	return rows
}
