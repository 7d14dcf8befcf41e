package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalytics/internal/domain/models"
	xhttp "catalytics/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestTLX_FetchParsesSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/Prod/hello/", r.URL.Path)
		assert.Equal(t, "DAYS", q.Get("granularity"))
		assert.Equal(t, "1", q.Get("granularityUnit"))
		assert.Equal(t, "1000", q.Get("initialInvestment"))
		assert.Equal(t, "2024-01-01", q.Get("fromDate"))
		assert.Equal(t, "2024-01-03", q.Get("toDate"))
		assert.Equal(t, "BTC2L", q.Get("coin"))
		fmt.Fprint(w, `{"data":[
			{"timestamp":"2024-01-02T00:00:00Z","price":1010.5},
			{"timestamp":"2024-01-01","price":1000},
			{"timestamp":"2024-01-03 00:00:00","price":null}
		]}`)
	}))
	defer srv.Close()

	feed := NewTLX(srv.URL+"/Prod/hello/", []string{"BTC2L"}, xhttp.NewClient(), nil)
	assert.Equal(t, "tlx", feed.Name())

	s, err := feed.Fetch(context.Background(), d("2024-01-01"), d("2024-01-03"), "BTC2L")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, d("2024-01-01"), s[0].Date)
	assert.Equal(t, []float64{1000, 1010.5}, s.Values())
}

func TestToros_QueryAndEpochTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Empty(t, r.URL.Query().Get("granularity"))
		fmt.Fprint(w, `{"data":[{"timestamp":1704067200,"price":5},{"timestamp":1704153600000,"price":6}]}`)
	}))
	defer srv.Close()

	feed := NewToros(srv.URL, []string{"STETH2X"}, xhttp.NewClient(), nil)
	s, err := feed.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "STETH2X")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, d("2024-01-01"), s[0].Date)
	assert.Equal(t, d("2024-01-02"), s[1].Date)
}

func TestHTTPFeed_MalformedTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"timestamp":"01/02/2024","price":5}]}`)
	}))
	defer srv.Close()

	feed := NewToros(srv.URL, []string{"BTC3XPOL"}, xhttp.NewClient(), nil)
	_, err := feed.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "BTC3XPOL")
	assert.ErrorIs(t, err, models.ErrMalformedDate)
}

func TestHTTPFeed_RejectsUnservedID(t *testing.T) {
	feed := NewTLX("", []string{"BTC2L"}, xhttp.NewClient(), nil)
	_, err := feed.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "ETH9L")
	assert.ErrorIs(t, err, models.ErrUnknownBenchmark)
}

type fakePrices struct {
	calls []string
	data  models.Series
}

func (f *fakePrices) FetchPrices(_ context.Context, assetID string, category models.Category, _, _ time.Time) (models.Series, error) {
	f.calls = append(f.calls, assetID+"@"+string(category))
	return f.data, nil
}

func TestStoreFamilies(t *testing.T) {
	prices := &fakePrices{data: models.Series{
		{Date: d("2024-01-02"), Value: 2},
		{Date: d("2024-01-01"), Value: 1},
	}}
	tv := NewTradingView(prices)
	cg := NewCoinGeckoPrice(prices)

	assert.True(t, tv.Supports("others.d"))
	assert.False(t, tv.Supports("Solana"))
	assert.True(t, cg.Supports("Solana"))

	s, err := cg.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "Solana")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values())

	_, err = tv.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "total2")
	require.NoError(t, err)
	assert.Equal(t, []string{"solana@coingecko", "total2@tradingview"}, prices.calls)
}

func TestRouter(t *testing.T) {
	prices := &fakePrices{}
	r := NewRouter(
		NewTradingView(prices),
		NewCoinGeckoPrice(prices),
		NewTLX("", []string{"BTC2L", "SOL3L"}, xhttp.NewClient(), nil),
		NewToros("", []string{"BTC2XOPT"}, xhttp.NewClient(), nil),
	)

	assert.Equal(t, "tradingview", r.Family("btc"))
	assert.Equal(t, "coingecko", r.Family("Solana"))
	assert.Equal(t, "tlx", r.Family("SOL3L"))
	assert.Equal(t, "toros", r.Family("BTC2XOPT"))
	assert.Empty(t, r.Family("DOGE"))

	_, err := r.Fetch(context.Background(), d("2024-01-01"), d("2024-01-02"), "DOGE")
	assert.ErrorIs(t, err, models.ErrUnknownBenchmark)
}

func TestParseTimestamp(t *testing.T) {
	for _, raw := range []string{`"2024-03-05"`, `"2024-03-05T13:00:00Z"`, `1709643600`, `1709643600000`} {
		got, err := parseTimestamp(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, d("2024-03-05"), got, raw)
	}
	_, err := parseTimestamp(nil)
	assert.ErrorIs(t, err, models.ErrMalformedDate)
}
