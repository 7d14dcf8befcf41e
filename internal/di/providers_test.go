package di

import (
	"testing"

	"catalytics/internal/services/feeds"
	"catalytics/pkg/cache"
	"catalytics/pkg/config"
	applogger "catalytics/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	return cfg
}

func TestProvideBenchmarkCache(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, ProvideBenchmarkCache(cfg, nil))

	cfg.Cache.Enabled = true
	c := ProvideBenchmarkCache(cfg, nil)
	require.NotNil(t, c)
	assert.IsType(t, &cache.MemoryCache{}, c)
}

func TestProvideBenchmarkSource_CacheWrapping(t *testing.T) {
	cfg := testConfig(t)
	l := applogger.Nop()

	src := ProvideBenchmarkSource(cfg, nil, ProvideHTTPClient(cfg), nil, l)
	assert.IsType(t, &feeds.Router{}, src)

	src = ProvideBenchmarkSource(cfg, nil, ProvideHTTPClient(cfg), cache.NewMemoryCache(), l)
	assert.IsType(t, &feeds.CachedSource{}, src)
}

func TestProvideJobQueue_DisabledWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, ProvideJobQueue(nil, cfg, nil, applogger.Nop()))
}
