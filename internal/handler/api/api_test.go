package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/usecase"
	xlogger "catalytics/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

type stubStore struct {
	snaps     []models.Snapshot
	assets    []models.Asset
	healthErr error
}

func (s *stubStore) FetchSnapshots(_ context.Context, _, _ time.Time, category models.Category) ([]models.Snapshot, error) {
	var out []models.Snapshot
	for _, sn := range s.snaps {
		if sn.Category == category {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (s *stubStore) FetchPrices(_ context.Context, assetID string, category models.Category, _, _ time.Time) (models.Series, error) {
	var out models.Series
	for _, sn := range s.snaps {
		if sn.AssetID == assetID && sn.Category == category {
			out = append(out, models.Point{Date: sn.Date, Value: sn.Price.InexactFloat64()})
		}
	}
	return out, nil
}

func (s *stubStore) ListAssets(_ context.Context, category models.Category) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range s.assets {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) UpsertAssets(context.Context, []models.Asset) error { return nil }

func (s *stubStore) Health(context.Context) error { return s.healthErr }

type stubBench map[string]models.Series

func (b stubBench) Fetch(_ context.Context, _, _ time.Time, id string) (models.Series, error) {
	s, ok := b[id]
	if !ok {
		return nil, models.ErrUnknownBenchmark
	}
	return s, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSnapshotsIngested(string, int) {}
func (nopMetrics) RecordBenchmarkSkipped(string)       {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLatency(string, float64)       {}

func snap(id string, cat models.Category, d int, mcap int64, price string) models.Snapshot {
	return models.Snapshot{
		AssetID:   id,
		Category:  cat,
		MarketCap: decimal.NewFromInt(mcap),
		Price:     decimal.RequireFromString(price),
		Date:      day(d),
	}
}

func newTestServer(store *stubStore) *echo.Echo {
	bench := stubBench{
		"total": {{Date: day(0), Value: 30}, {Date: day(1), Value: 50}, {Date: day(2), Value: 45}},
	}
	log := xlogger.Nop()
	idx := usecase.NewIndexUseCase(store, store, bench, nopMetrics{}, []int{3, 15}, log)
	rs := usecase.NewRSPSUseCase(store, bench, nopMetrics{}, []models.Benchmark{{ID: "total", Label: "total"}}, log)
	market := usecase.NewMarketUseCase(store, store)

	e := echo.New()
	NewAnalyticsEchoHandler(log, idx, rs, usecase.NewCorrelationUseCase()).RegisterRoutes(e)
	NewMarketEchoHandler(log, market, store).RegisterRoutes(e)
	return e
}

func defaultStore() *stubStore {
	return &stubStore{
		snaps: []models.Snapshot{
			snap("A", models.CategoryMemes, 0, 10, "1"), snap("A", models.CategoryMemes, 1, 30, "1"), snap("A", models.CategoryMemes, 2, 20, "1"),
			snap("B", models.CategoryMemes, 0, 20, "1"), snap("B", models.CategoryMemes, 1, 20, "1"), snap("B", models.CategoryMemes, 2, 25, "1"),
			snap("solana", models.CategorySolana, 0, 1, "100"), snap("solana", models.CategorySolana, 1, 1, "110"),
		},
		assets: []models.Asset{{ID: "A", Category: models.CategoryMemes, Image: "a.png", Order: 1}},
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestIndexEndpoint(t *testing.T) {
	e := newTestServer(defaultStore())
	rec, env := do(t, e, http.MethodGet,
		"/api/index/coingecko-memes?start_date=2024-03-01&end_date=2024-03-03&index_start=0&index_end=1&correlation_coin_ids=total,unknown", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		MarketCapSums            map[string]float64        `json:"market_cap_sums"`
		MarketCapSumsBaseIndexed map[string]float64        `json:"market_cap_sums_base_indexed"`
		Participation            []ParticipationDTO        `json:"participation"`
		CorrelationData          map[string]map[string]any `json:"correlation_data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))

	assert.Equal(t, map[string]float64{"2024-03-01": 30, "2024-03-02": 50, "2024-03-03": 45}, out.MarketCapSums)
	assert.InDelta(t, 100.0, out.MarketCapSumsBaseIndexed["2024-03-01"], 1e-9)
	require.Len(t, out.Participation, 2)

	require.Contains(t, out.CorrelationData, "total")
	assert.NotContains(t, out.CorrelationData, "unknown")
	total := out.CorrelationData["total"]
	assert.InDelta(t, 1.0, total["correlation3"], 1e-9)
	assert.InDelta(t, 1.0, total["correlation3_base_indexed"], 1e-9)
	assert.Equal(t, 2.0, total["correlation15"])
	assert.Equal(t, 2.0, total["correlation15_base_indexed"])
}

func TestIndexEndpointValidation(t *testing.T) {
	e := newTestServer(defaultStore())
	cases := []struct {
		name   string
		target string
	}{
		{"missing dates", "/api/index/coingecko-memes"},
		{"unknown category", "/api/index/nasdaq?start_date=2024-03-01&end_date=2024-03-03"},
		{"malformed date", "/api/index/coingecko?start_date=yesterday&end_date=2024-03-03"},
		{"negative index_end", "/api/index/coingecko-memes?start_date=2024-03-01&end_date=2024-03-03&index_end=-3"},
		{"negative index_start", "/api/index/coingecko-memes?start_date=2024-03-01&end_date=2024-03-03&index_start=-1"},
		{"non-numeric index_end", "/api/index/coingecko-memes?start_date=2024-03-01&end_date=2024-03-03&index_end=ten"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, e, http.MethodGet, tc.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, http.StatusBadRequest, env.Status)
		})
	}
}

func TestRSPSEndpoint(t *testing.T) {
	store := defaultStore()
	e := newTestServer(store)
	rec, env := do(t, e, http.MethodGet, "/api/rsps?start_date=2024-03-01&end_date=2024-03-03&max_market_cap=100", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Contains(t, r, "coin_name")
		// constant prices never co-move with the benchmark
		assert.Equal(t, 0.0, r["beta_total"])
		assert.Equal(t, 0.0, r["std"])
	}
}

func TestRSPSEndpointZeroReferenceVolatility(t *testing.T) {
	store := &stubStore{snaps: []models.Snapshot{
		snap("A", models.CategoryMemes, 0, 100, "1"),
		snap("A", models.CategoryMemes, 1, 200, "2"),
		snap("A", models.CategoryMemes, 2, 400, "3"),
	}}
	e := newTestServer(store)
	rec, env := do(t, e, http.MethodGet, "/api/rsps?start_date=2024-03-01&end_date=2024-03-03", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.Status)
}

func TestRSPSEndpointBadCap(t *testing.T) {
	e := newTestServer(defaultStore())
	rec, _ := do(t, e, http.MethodGet, "/api/rsps?start_date=2024-03-01&end_date=2024-03-03&min_market_cap=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorrelationEndpoint(t *testing.T) {
	e := newTestServer(defaultStore())
	body := `{"series_a":{"2024-03-01":1,"2024-03-02":2,"2024-03-03":4},"series_b":{"2024-03-01":2,"2024-03-02":4,"2024-03-03":8},"window":3}`
	rec, env := do(t, e, http.MethodPost, "/api/correlation", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out CorrelationResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.InDelta(t, 1.0, out.Correlation, 1e-9)

	body = `{"series_a":{"2024-03-01":1},"series_b":{"2024-03-01":2},"window":3}`
	_, env = do(t, e, http.MethodPost, "/api/correlation", body)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 2.0, out.Correlation)

	body = `{"series_a":{"soon":1},"series_b":{"2024-03-01":2},"window":3}`
	rec, _ = do(t, e, http.MethodPost, "/api/correlation", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceChartAndAssets(t *testing.T) {
	e := newTestServer(defaultStore())
	rec, env := do(t, e, http.MethodGet, "/api/prices/solana?start_date=2024-03-01&end_date=2024-03-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prices map[string]float64
	require.NoError(t, json.Unmarshal(env.Data, &prices))
	assert.Equal(t, map[string]float64{"2024-03-01": 100, "2024-03-02": 110}, prices)

	rec, env = do(t, e, http.MethodGet, "/api/assets/coingecko-memes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var assets []models.Asset
	require.NoError(t, json.Unmarshal(env.Data, &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "a.png", assets[0].Image)
}

func TestHealthz(t *testing.T) {
	store := defaultStore()
	e := newTestServer(store)
	rec, _ := do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.healthErr = errors.New("down")
	rec, _ = do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
