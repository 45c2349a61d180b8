package storage

import (
	"errors"
	"time"

	"github.com/phambaophuc/masscrop/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("not configured")

// StorageService fronts the optional remote backends: a Redis cache for
// transform results and a Supabase bucket for exported artifacts. Either
// client is nil when its backend is not configured.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
	logger        *zap.Logger
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	s := &StorageService{
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: cfg.Redis.CacheDuration,
		logger:        logger,
	}

	if cfg.Supabase.URL != "" && cfg.Supabase.BUCKET != "" {
		s.sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	if cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		})
	}

	return s, nil
}

// CacheEnabled reports whether transform results are cached in Redis.
func (s *StorageService) CacheEnabled() bool {
	return s != nil && s.redisClient != nil
}

// ExportEnabled reports whether artifacts can be published to Supabase.
func (s *StorageService) ExportEnabled() bool {
	return s != nil && s.sbClient != nil
}

func (s *StorageService) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
