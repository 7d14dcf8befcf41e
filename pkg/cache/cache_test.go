package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "bench:btc:2024-01-01", Key("bench", "btc", "2024-01-01"))
	assert.Equal(t, "bench", Key("bench"))
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", payload{ID: "a", Value: 1.5}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{ID: "a", Value: 1.5}, got)

	err := c.Get(ctx, "missing", &got)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "forever", 2, 0))

	now = now.Add(2 * time.Minute)
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "forever", &v))
	assert.Equal(t, 2, v)
}

func TestMemoryCache_EvictsLeastRecentlyRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(WithMemoryMaxSize(2))
	c.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	var v int
	require.NoError(t, c.Get(ctx, "a", &v))

	require.NoError(t, c.Set(ctx, "c", 3, 0))
	assert.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "a", &v))
	assert.NoError(t, c.Get(ctx, "c", &v))
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	in := []payload{{ID: "a", Value: 1}}
	require.NoError(t, c.Set(ctx, "k", in, 0))

	var out []payload
	require.NoError(t, c.Get(ctx, "k", &out))
	out[0].Value = 99

	var again []payload
	require.NoError(t, c.Get(ctx, "k", &again))
	assert.Equal(t, 1.0, again[0].Value)
}

func TestLayeredCache_PromotesFromRemote(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache()
	remote := NewMemoryCache()
	lc := NewLayeredCache(mem, remote, time.Minute)

	require.NoError(t, remote.Set(ctx, "k", payload{ID: "r"}, time.Hour))
	assert.ErrorIs(t, mem.Get(ctx, "k", &payload{}), ErrCacheMiss)

	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "r", got.ID)

	var l1 payload
	require.NoError(t, mem.Get(ctx, "k", &l1))
	assert.Equal(t, "r", l1.ID)
}

func TestLayeredCache_WriteThroughAndDelete(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache()
	remote := NewMemoryCache()
	lc := NewLayeredCache(mem, remote, time.Minute)

	require.NoError(t, lc.Set(ctx, "k", 7, time.Hour))
	var v int
	require.NoError(t, mem.Get(ctx, "k", &v))
	require.NoError(t, remote.Get(ctx, "k", &v))

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestLayeredCache_MemTTL(t *testing.T) {
	lc := NewLayeredCache(NewMemoryCache(), NewMemoryCache(), time.Minute)
	assert.Equal(t, time.Minute, lc.memTTL(time.Hour))
	assert.Equal(t, time.Minute, lc.memTTL(0))
	assert.Equal(t, 30*time.Second, lc.memTTL(30*time.Second))
}
