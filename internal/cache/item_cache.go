package cache

import (
	"context"
	"fmt"
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

// RegistrySource defines the registry operations the item cache sits in front of
type RegistrySource interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	SubmitPoint(ctx context.Context, point *models.PointSubmission) error
}

const (
	itemsKey          = "registry:items"
	itemCleanupPeriod = 10 * time.Minute
)

// ItemCache memoizes the registry's item catalog. Submissions pass straight through.
//
// Besides the TTL-bound entry it remembers the last catalog ever loaded, so a form
// re-rendered after a failed submit can show the grid without asking the registry again.
type ItemCache struct {
	RegistrySource

	cache *gocache.Cache
	ttl   time.Duration
	group singleflight.Group

	mu   sync.RWMutex
	last []models.Item
}

// NewItemCache wraps source; a ttl of zero disables memoization but still keeps the last catalog
func NewItemCache(source RegistrySource, ttl time.Duration) *ItemCache {
	return &ItemCache{
		RegistrySource: source,
		cache:          gocache.New(ttl, itemCleanupPeriod),
		ttl:            ttl,
	}
}

// Initialize loads the catalog once at start-up, retrying a couple of times.
// A failure leaves the cache cold but usable.
func (ic *ItemCache) Initialize(ctx context.Context) error {
	logger.Info("Warming item cache...")
	startTime := time.Now()

	err := retry.Do(ctx, retry.WarmupConfig(), "items_warmup", func() error {
		_, err := ic.ListItems(ctx)
		return err
	})
	if err != nil {
		logger.Warn("Item cache warm-up failed, continuing cold", zap.Error(err))
		return err
	}

	logger.Info("Item cache warmed", zap.Duration("duration", time.Since(startTime)))
	return nil
}

// ListItems returns the cached catalog, loading it on a miss
func (ic *ItemCache) ListItems(ctx context.Context) ([]models.Item, error) {
	if ic.ttl > 0 {
		if data, found := ic.cache.Get(itemsKey); found {
			if items, ok := data.([]models.Item); ok {
				metrics.CacheHits.WithLabelValues("items").Inc()
				return append([]models.Item(nil), items...), nil
			}
			logger.Error("Invalid items cache data type")
			ic.cache.Delete(itemsKey)
		}
		metrics.CacheMisses.WithLabelValues("items").Inc()
	}

	v, err := sharedFetch(ctx, &ic.group, itemsKey, func(fetchCtx context.Context) (interface{}, error) {
		items, err := ic.RegistrySource.ListItems(fetchCtx)
		if err != nil {
			return nil, err
		}
		ic.remember(items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, ok := v.([]models.Item)
	if !ok {
		return nil, fmt.Errorf("invalid items result type")
	}
	return append([]models.Item(nil), items...), nil
}

// CachedItems returns the last catalog loaded, whether or not its TTL has passed.
// It never calls the registry.
func (ic *ItemCache) CachedItems() ([]models.Item, bool) {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	if ic.last == nil {
		return nil, false
	}
	return append([]models.Item(nil), ic.last...), true
}

func (ic *ItemCache) remember(items []models.Item) {
	if ic.ttl > 0 {
		ic.cache.Set(itemsKey, items, gocache.DefaultExpiration)
		metrics.CacheSize.WithLabelValues("items").Set(float64(len(items)))
	}

	ic.mu.Lock()
	ic.last = append([]models.Item{}, items...)
	ic.mu.Unlock()
}
