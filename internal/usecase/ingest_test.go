package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"catalytics/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id string, mcap string) models.MarketListing {
	l := models.MarketListing{
		ID:           id,
		Image:        id + ".png",
		CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(2)),
		TotalVolume:  decimal.NewNullDecimal(decimal.NewFromInt(7)),
	}
	if mcap != "" {
		l.MarketCap = decimal.NewNullDecimal(decimal.RequireFromString(mcap))
	}
	return l
}

func marketFixture() *fakeMarket {
	return &fakeMarket{listings: []models.MarketListing{
		listing("bonk", "900"),
		listing("ghost", ""),
		listing("zero", "0"),
		listing("wif", "500"),
	}}
}

func TestIngestDirectStoresSnapshotsAndAssets(t *testing.T) {
	store := newMemStore()
	m := newFakeMetrics()
	p := NewIngestProcessor(marketFixture(), store, nil, m, BackendDirect, nil)

	at := time.Date(2024, 3, 2, 17, 45, 0, 0, time.UTC)
	rep, err := p.Ingest(context.Background(), models.CategorySolMemes, at)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Listed)
	assert.Equal(t, 2, rep.Stored)
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, day(1), rep.Date)

	snaps, err := store.FetchSnapshots(context.Background(), day(1), day(1), models.CategorySolMemes)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assets, err := store.ListAssets(context.Background(), models.CategorySolMemes)
	require.NoError(t, err)
	orders := map[string]int{}
	for _, a := range assets {
		orders[a.ID] = a.Order
	}
	assert.Equal(t, map[string]int{"bonk": 1, "wif": 2}, orders)
	assert.Equal(t, 2, m.ingested[string(models.CategorySolMemes)])
}

func TestIngestIsIdempotentPerDay(t *testing.T) {
	store := newMemStore()
	p := NewIngestProcessor(marketFixture(), store, nil, newFakeMetrics(), BackendDirect, nil)

	for i := 0; i < 2; i++ {
		_, err := p.Ingest(context.Background(), models.CategorySolMemes, day(1))
		require.NoError(t, err)
	}
	assert.Len(t, store.snapshots, 2)
}

func TestIngestKafkaPublishes(t *testing.T) {
	pub := &fakePublisher{}
	store := newMemStore()
	p := NewIngestProcessor(marketFixture(), store, pub, newFakeMetrics(), BackendKafka, nil)

	_, err := p.Ingest(context.Background(), models.CategorySolana, day(0))
	require.NoError(t, err)
	assert.Len(t, pub.snaps, 2)
	assert.Len(t, pub.assets, 2)
	assert.Empty(t, store.snapshots)
}

func TestIngestDefaultsToToday(t *testing.T) {
	store := newMemStore()
	p := NewIngestProcessor(marketFixture(), store, nil, newFakeMetrics(), "", nil)
	p.now = func() time.Time { return time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC) }

	rep, err := p.Ingest(context.Background(), models.CategoryMemes, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, day(3), rep.Date)
	assert.Equal(t, BackendDirect, rep.Backend)
}

func TestIngestErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("unknown category", func(t *testing.T) {
		p := NewIngestProcessor(marketFixture(), newMemStore(), nil, newFakeMetrics(), BackendDirect, nil)
		_, err := p.Ingest(context.Background(), models.CategoryBenchmarks, day(0))
		assert.ErrorIs(t, err, models.ErrUnknownCategory)
	})

	t.Run("market failure", func(t *testing.T) {
		m := newFakeMetrics()
		p := NewIngestProcessor(&fakeMarket{err: boom}, newMemStore(), nil, m, BackendDirect, nil)
		_, err := p.Ingest(context.Background(), models.CategoryMemes, day(0))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"ingest_fetch"}, m.errors)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.storeErr = boom
		m := newFakeMetrics()
		p := NewIngestProcessor(marketFixture(), store, nil, m, BackendDirect, nil)
		_, err := p.Ingest(context.Background(), models.CategoryMemes, day(0))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"ingest_direct"}, m.errors)
	})

	t.Run("unknown backend", func(t *testing.T) {
		p := NewIngestProcessor(marketFixture(), newMemStore(), nil, newFakeMetrics(), "s3", nil)
		_, err := p.Ingest(context.Background(), models.CategoryMemes, day(0))
		assert.ErrorContains(t, err, "unknown backend")
	})

	t.Run("empty listing", func(t *testing.T) {
		p := NewIngestProcessor(&fakeMarket{}, newMemStore(), nil, newFakeMetrics(), BackendDirect, nil)
		rep, err := p.Ingest(context.Background(), models.CategoryMemes, day(0))
		require.NoError(t, err)
		assert.Zero(t, rep.Stored)
	})
}

func TestKafkaSnapshotsHandler(t *testing.T) {
	store := newMemStore()
	m := newFakeMetrics()
	h := NewKafkaSnapshotsHandler("catalytics.snapshots", store, m)
	assert.Equal(t, "catalytics.snapshots", h.Topic())

	batch := models.SnapshotBatch{
		BatchID:  "b1",
		Category: models.CategoryMemes,
		Snapshots: []models.Snapshot{
			capSnap("A", 0, 10),
			capSnap("B", 0, 20),
		},
		Assets: []models.Asset{{ID: "A", Category: models.CategoryMemes, Order: 1}},
	}
	b, err := json.Marshal(batch)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), b))
	require.NoError(t, h.Handle(context.Background(), b))
	assert.Len(t, store.snapshots, 2)
	assert.Len(t, store.assets, 1)
	assert.Equal(t, 4, m.ingested[string(models.CategoryMemes)])

	err = h.Handle(context.Background(), []byte("{"))
	assert.Error(t, err)
	assert.Contains(t, m.errors, "consumer_unmarshal")
}

func TestIngestCategoryJob(t *testing.T) {
	store := newMemStore()
	p := NewIngestProcessor(marketFixture(), store, nil, newFakeMetrics(), BackendDirect, nil)
	job := NewIngestCategoryJob(p)
	assert.Equal(t, IngestJobType, job.Type())

	payload := json.RawMessage(`{"category":"coingecko-memes","date":"2024-03-01"}`)
	require.NoError(t, job.Handle(context.Background(), payload))
	snaps, err := store.FetchSnapshots(context.Background(), day(0), day(0), models.CategoryMemes)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	err = job.Handle(context.Background(), IngestPayload{Category: "coingecko-memes", Date: "03/01/2024"})
	assert.ErrorIs(t, err, models.ErrMalformedDate)

	err = job.Handle(context.Background(), map[string]interface{}{"category": "nasdaq"})
	assert.ErrorIs(t, err, models.ErrUnknownCategory)
}
