package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/pkg/utils"
	"go.uber.org/zap"
)

// Export uploads an aggregated artifact to the configured bucket and returns
// its public URL.
func (s *StorageService) Export(ctx context.Context, artifact *models.Artifact) (*models.ExportResult, error) {
	if !s.ExportEnabled() {
		return nil, fmt.Errorf("export storage: %w", ErrNotConfigured)
	}

	key := utils.GenerateStorageKey(artifact.Filename, time.Now())

	if _, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(artifact.Data)); err != nil {
		return nil, fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)

	s.logger.Info("Artifact exported",
		zap.String("key", key),
		zap.Int("entries", artifact.Entries),
		zap.Int("bytes", len(artifact.Data)))

	return &models.ExportResult{
		Filename: artifact.Filename,
		URL:      publicURL.SignedURL,
		Entries:  artifact.Entries,
		FileSize: int64(len(artifact.Data)),
	}, nil
}
