package usecase

import (
	"context"
	"sync"
	"time"

	"catalytics/internal/domain/models"
)

type fakeSnapshots struct {
	snaps []models.Snapshot
	err   error
	calls int
}

func (f *fakeSnapshots) FetchSnapshots(_ context.Context, _, _ time.Time, category models.Category) ([]models.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Snapshot
	for _, s := range f.snaps {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBench struct {
	series map[string]models.Series
	errs   map[string]error
}

func (f *fakeBench) Fetch(_ context.Context, _, _ time.Time, id string) (models.Series, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	s, ok := f.series[id]
	if !ok {
		return nil, models.ErrUnknownBenchmark
	}
	return s, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	ingested map[string]int
	skipped  []string
	errors   []string
	ops      []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{ingested: map[string]int{}}
}

func (m *fakeMetrics) RecordSnapshotsIngested(category string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[category] += n
}

func (m *fakeMetrics) RecordBenchmarkSkipped(benchmark string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, benchmark)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}

// memStore is an in-memory SnapshotStore keyed like the real stores.
type memStore struct {
	mu        sync.Mutex
	snapshots map[string]models.Snapshot
	assets    map[string]models.Asset
	storeErr  error
	assetsErr error
}

func newMemStore() *memStore {
	return &memStore{snapshots: map[string]models.Snapshot{}, assets: map[string]models.Asset{}}
}

func (s *memStore) Init(context.Context) error   { return nil }
func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func (s *memStore) StoreBatch(_ context.Context, snaps []models.Snapshot) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range snaps {
		s.snapshots[sn.Key()] = sn
	}
	return nil
}

func (s *memStore) FetchSnapshots(_ context.Context, start, end time.Time, category models.Category) ([]models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Snapshot
	for _, sn := range s.snapshots {
		if sn.Category == category && !sn.Date.Before(start) && !sn.Date.After(end) {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (s *memStore) FetchPrices(_ context.Context, assetID string, category models.Category, start, end time.Time) (models.Series, error) {
	snaps, _ := s.FetchSnapshots(context.Background(), start, end, category)
	var out models.Series
	for _, sn := range snaps {
		if sn.AssetID == assetID {
			out = append(out, models.Point{Date: sn.Date, Value: sn.Price.InexactFloat64()})
		}
	}
	return out, nil
}

func (s *memStore) ListAssets(_ context.Context, category models.Category) ([]models.Asset, error) {
	if s.assetsErr != nil {
		return nil, s.assetsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Asset
	for _, a := range s.assets {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) UpsertAssets(_ context.Context, assets []models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assets {
		s.assets[a.ID+"#"+string(a.Category)] = a
	}
	return nil
}

type fakeMarket struct {
	listings []models.MarketListing
	err      error
}

func (f *fakeMarket) FetchMarkets(context.Context, models.Category) ([]models.MarketListing, error) {
	return f.listings, f.err
}

type fakePublisher struct {
	snaps  []models.Snapshot
	assets []models.Asset
	err    error
}

func (p *fakePublisher) PublishBatch(_ context.Context, snaps []models.Snapshot, assets []models.Asset) error {
	if p.err != nil {
		return p.err
	}
	p.snaps = append(p.snaps, snaps...)
	p.assets = append(p.assets, assets...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
