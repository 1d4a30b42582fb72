package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/ecoleta/ecoleta-web/pkg/retry"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// GeographySource defines the interface for state and city lookups
type GeographySource interface {
	ListStates(ctx context.Context) ([]models.State, error)
	ListCities(ctx context.Context, uf string) ([]models.City, error)
}

const (
	statesKey        = "geo:states"
	citiesKeyPrefix  = "geo:cities:"
	geoCleanupPeriod = 10 * time.Minute
)

// GeographyCache memoizes successful geography lookups. Failures are never stored,
// so the next request after an outage goes back to the source.
type GeographyCache struct {
	cache  *gocache.Cache
	source GeographySource
	ttl    time.Duration
	group  singleflight.Group
	mu     sync.RWMutex
	ready  bool
}

// NewGeographyCache wraps source; a ttl of zero disables caching
func NewGeographyCache(source GeographySource, ttl time.Duration) *GeographyCache {
	return &GeographyCache{
		cache:  gocache.New(ttl, geoCleanupPeriod),
		source: source,
		ttl:    ttl,
	}
}

// Enabled reports whether lookups are memoized at all
func (gc *GeographyCache) Enabled() bool {
	return gc.ttl > 0
}

// Initialize warms the state list, retrying a couple of times.
// A failure leaves the cache cold but usable.
func (gc *GeographyCache) Initialize(ctx context.Context) error {
	if !gc.Enabled() {
		logger.Info("Geography cache disabled")
		return nil
	}

	logger.Info("Warming geography cache...")
	startTime := time.Now()

	err := retry.Do(ctx, retry.WarmupConfig(), "geography_warmup", func() error {
		_, err := gc.ListStates(ctx)
		return err
	})
	if err != nil {
		logger.Warn("Geography cache warm-up failed, continuing cold", zap.Error(err))
		return err
	}

	logger.Info("Geography cache warmed", zap.Duration("duration", time.Since(startTime)))
	return nil
}

// IsReady returns true once the state list has been loaded at least once
func (gc *GeographyCache) IsReady() bool {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return gc.ready
}

// ListStates returns the cached state list, loading it on a miss
func (gc *GeographyCache) ListStates(ctx context.Context) ([]models.State, error) {
	if !gc.Enabled() {
		return gc.source.ListStates(ctx)
	}

	if data, found := gc.cache.Get(statesKey); found {
		if states, ok := data.([]models.State); ok {
			metrics.CacheHits.WithLabelValues("states").Inc()
			return append([]models.State(nil), states...), nil
		}
		logger.Error("Invalid states cache data type")
		gc.cache.Delete(statesKey)
	}
	metrics.CacheMisses.WithLabelValues("states").Inc()

	v, err := sharedFetch(ctx, &gc.group, statesKey, func(fetchCtx context.Context) (interface{}, error) {
		states, err := gc.source.ListStates(fetchCtx)
		if err != nil {
			return nil, err
		}
		gc.store(statesKey, states)

		gc.mu.Lock()
		gc.ready = true
		gc.mu.Unlock()
		return states, nil
	})
	if err != nil {
		return nil, err
	}

	states, ok := v.([]models.State)
	if !ok {
		return nil, fmt.Errorf("invalid states result type")
	}
	return append([]models.State(nil), states...), nil
}

// ListCities returns the cached city list of uf, loading it on a miss
func (gc *GeographyCache) ListCities(ctx context.Context, uf string) ([]models.City, error) {
	if !gc.Enabled() {
		return gc.source.ListCities(ctx, uf)
	}

	key := citiesKeyPrefix + strings.TrimSpace(uf)

	if data, found := gc.cache.Get(key); found {
		if cities, ok := data.([]models.City); ok {
			metrics.CacheHits.WithLabelValues("cities").Inc()
			return append([]models.City(nil), cities...), nil
		}
		logger.Error("Invalid cities cache data type", zap.String("uf", uf))
		gc.cache.Delete(key)
	}
	metrics.CacheMisses.WithLabelValues("cities").Inc()

	v, err := sharedFetch(ctx, &gc.group, key, func(fetchCtx context.Context) (interface{}, error) {
		cities, err := gc.source.ListCities(fetchCtx, uf)
		if err != nil {
			return nil, err
		}
		gc.store(key, cities)
		return cities, nil
	})
	if err != nil {
		return nil, err
	}

	cities, ok := v.([]models.City)
	if !ok {
		return nil, fmt.Errorf("invalid cities result type")
	}
	return append([]models.City(nil), cities...), nil
}

func (gc *GeographyCache) store(key string, value interface{}) {
	gc.cache.Set(key, value, gocache.DefaultExpiration)
	metrics.CacheSize.WithLabelValues("geography").Set(float64(gc.cache.ItemCount()))
	logger.Debug("Geography cache stored", zap.String("key", key))
}
