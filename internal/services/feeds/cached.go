package feeds

import (
	"context"
	"errors"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/domain/service"
	"catalytics/pkg/cache"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/util"
)

// cachedPoint is the cache encoding of one series point.
type cachedPoint struct {
	Date  string  `json:"d"`
	Value float64 `json:"v"`
}

// CachedSource is a read-through cache in front of a BenchmarkSource. Results
// are keyed by benchmark id and day range; errors are never cached.
type CachedSource struct {
	next  service.BenchmarkSource
	store cache.Store
	ttl   time.Duration
	log   *applogger.Logger
}

var _ service.BenchmarkSource = (*CachedSource)(nil)

func NewCachedSource(next service.BenchmarkSource, store cache.Store, ttl time.Duration, log *applogger.Logger) *CachedSource {
	if log == nil {
		log = applogger.Nop()
	}
	return &CachedSource{next: next, store: store, ttl: ttl, log: log}
}

func (c *CachedSource) Fetch(ctx context.Context, start, end time.Time, id string) (models.Series, error) {
	key := cache.Key("bench", id, util.DayKey(start), util.DayKey(end))

	var hit []cachedPoint
	err := c.store.Get(ctx, key, &hit)
	if err == nil {
		return decodePoints(hit)
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("benchmark cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	s, err := c.next.Fetch(ctx, start, end, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, encodePoints(s), c.ttl); err != nil {
		c.log.Warn("benchmark cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return s, nil
}

func encodePoints(s models.Series) []cachedPoint {
	out := make([]cachedPoint, len(s))
	for i, p := range s {
		out[i] = cachedPoint{Date: util.DayKey(p.Date), Value: p.Value}
	}
	return out
}

func decodePoints(pts []cachedPoint) (models.Series, error) {
	out := make(models.Series, len(pts))
	for i, p := range pts {
		d, err := util.ParseDay(p.Date)
		if err != nil {
			return nil, err
		}
		out[i] = models.Point{Date: d, Value: p.Value}
	}
	return out, nil
}
