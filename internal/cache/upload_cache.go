package cache

import (
	"context"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const uploadCleanupPeriod = time.Minute

// UploadCache keeps staged images in process memory until they expire.
// Used when no object storage bucket is configured.
type UploadCache struct {
	cache *gocache.Cache
}

// NewUploadCache creates an in-memory upload store with the given lifetime per image
func NewUploadCache(ttl time.Duration) *UploadCache {
	return &UploadCache{cache: gocache.New(ttl, uploadCleanupPeriod)}
}

// Put stages img under a fresh token
func (uc *UploadCache) Put(_ context.Context, img *models.ImageUpload) (string, error) {
	token := uuid.NewString()

	staged := *img
	staged.Token = token
	staged.Data = append([]byte(nil), img.Data...)

	uc.cache.Set(token, &staged, gocache.DefaultExpiration)
	metrics.CacheSize.WithLabelValues("uploads").Set(float64(uc.cache.ItemCount()))
	logger.Debug("Image staged", zap.String("token", token), zap.Int("size_bytes", len(staged.Data)))

	return token, nil
}

// Get returns a staged image; unknown and expired tokens are ErrNotFound
func (uc *UploadCache) Get(_ context.Context, token string) (*models.ImageUpload, error) {
	data, found := uc.cache.Get(token)
	if !found {
		metrics.CacheMisses.WithLabelValues("uploads").Inc()
		return nil, apperrors.NotFoundError("staged image")
	}

	img, ok := data.(*models.ImageUpload)
	if !ok {
		uc.cache.Delete(token)
		return nil, apperrors.NotFoundError("staged image")
	}

	metrics.CacheHits.WithLabelValues("uploads").Inc()
	out := *img
	return &out, nil
}

// Delete drops a staged image
func (uc *UploadCache) Delete(_ context.Context, token string) error {
	uc.cache.Delete(token)
	metrics.CacheSize.WithLabelValues("uploads").Set(float64(uc.cache.ItemCount()))
	return nil
}
