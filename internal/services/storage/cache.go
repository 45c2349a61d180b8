package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "crop_cache:"

// GetFromCache returns nil, nil on a miss or when caching is disabled.
func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	if !s.CacheEnabled() {
		return nil, nil
	}

	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	if !s.CacheEnabled() {
		return nil
	}
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// GenerateCacheKey derives a key from the source bytes and every input that
// influences the encoded output.
func GenerateCacheKey(source []byte, region geometry.CropRegion, settings models.ProcessingSettings) string {
	hash := sha256.New()
	hash.Write(source)

	fmt.Fprintf(hash, "crop_%g_%g_%g_%g", region.X, region.Y, region.Width, region.Height)
	fmt.Fprintf(hash, "format_%s_quality_%g", settings.Format, settings.Quality)

	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if !s.CacheEnabled() {
		return nil, ErrNotConfigured
	}

	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"db_keys": dbSize,
	}, nil
}
