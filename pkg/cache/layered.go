package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level Store: L1 memory in front of a shared L2.
type LayeredCache struct {
	mem    *MemoryCache
	remote Store
	l1TTL  time.Duration
}

var _ Store = (*LayeredCache)(nil)

// NewLayeredCache fronts remote with mem. Entries promoted from L2 live in L1
// for at most l1TTL.
func NewLayeredCache(mem *MemoryCache, remote Store, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{mem: mem, remote: remote, l1TTL: l1TTL}
}

// Set writes through: L2 first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, lc.memTTL(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, lc.l1TTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) memTTL(expiration time.Duration) time.Duration {
	if lc.l1TTL > 0 && (expiration <= 0 || lc.l1TTL < expiration) {
		return lc.l1TTL
	}
	return expiration
}
