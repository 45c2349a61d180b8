// Package batch runs the crop transform over a session's queue and packages
// the results for download.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/events"
	"github.com/phambaophuc/masscrop/internal/services/session"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"go.uber.org/zap"
)

const failurePrefix = "Processing failed: "

// Transformer crops and re-encodes one image.
type Transformer interface {
	Apply(src []byte, region geometry.CropRegion, settings models.ProcessingSettings) ([]byte, error)
}

// Cache stores encoded outputs. GetFromCache returns nil, nil on a miss.
type Cache interface {
	GetFromCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte) error
}

type Coordinator struct {
	store       *session.Store
	transformer Transformer
	cache       Cache
	notifier    events.Notifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewCoordinator wires a coordinator. cache and notifier may be nil.
func NewCoordinator(
	store *session.Store,
	transformer Transformer,
	cache Cache,
	notifier events.Notifier,
	logger *zap.Logger,
) *Coordinator {
	if notifier == nil {
		notifier = events.Nop()
	}
	return &Coordinator{
		store:       store,
		transformer: transformer,
		cache:       cache,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Run processes every pending or completed item of the session, one at a
// time, in queue order. A failing item is recorded and the batch moves on.
// ctx is checked between items only.
func (c *Coordinator) Run(ctx context.Context, sessionID string) (*models.BatchSummary, error) {
	settings, items, err := c.store.BeginBatch(sessionID)
	if err != nil {
		return nil, err
	}
	defer c.store.EndBatch(sessionID)

	summary := &models.BatchSummary{SessionID: sessionID, StartedAt: c.now()}

	c.logger.Info("Batch started",
		zap.String("session_id", sessionID),
		zap.Int("items", len(items)),
		zap.String("format", settings.Format),
		zap.Float64("quality", settings.Quality))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Skipped += len(items) - i
			c.logger.Warn("Batch interrupted",
				zap.String("session_id", sessionID),
				zap.Int("remaining", len(items)-i),
				zap.Error(err))
			break
		}

		switch c.runItem(ctx, sessionID, item.ID, settings) {
		case models.StatusCompleted:
			summary.Completed++
		case models.StatusError:
			summary.Failed++
		default:
			summary.Skipped++
			continue
		}
		summary.Processed++
	}

	summary.FinishedAt = c.now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)

	c.logger.Info("Batch finished",
		zap.String("session_id", sessionID),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// runItem returns the status the item ended in, or "" when the item
// disappeared before or during its turn.
func (c *Coordinator) runItem(ctx context.Context, sessionID, itemID string, settings models.ProcessingSettings) string {
	item, source, ok := c.store.MarkProcessing(sessionID, itemID)
	if !ok {
		return ""
	}
	c.notify(ctx, sessionID, item)

	output, err := c.transform(ctx, source, *item.Crop, settings)
	if err != nil {
		c.logger.Error("Failed to process item",
			zap.String("session_id", sessionID),
			zap.String("item_id", itemID),
			zap.String("name", item.Name),
			zap.Error(err))

		failed, ok := c.store.Fail(sessionID, itemID, failurePrefix+err.Error())
		if !ok {
			return ""
		}
		c.notify(ctx, sessionID, failed)
		return models.StatusError
	}

	done, ok := c.store.Complete(sessionID, itemID, output, models.ContentType(settings.Format))
	if !ok {
		c.logger.Debug("Item removed during processing, output discarded",
			zap.String("session_id", sessionID),
			zap.String("item_id", itemID))
		return ""
	}
	c.notify(ctx, sessionID, done)
	return models.StatusCompleted
}

func (c *Coordinator) transform(ctx context.Context, source []byte, region geometry.CropRegion, settings models.ProcessingSettings) ([]byte, error) {
	if c.cache == nil {
		return c.transformer.Apply(source, region, settings)
	}

	key := storage.GenerateCacheKey(source, region, settings)
	cached, err := c.cache.GetFromCache(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to read transform cache", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	output, err := c.transformer.Apply(source, region, settings)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetCache(ctx, key, output); err != nil {
		c.logger.Warn("Failed to cache result", zap.Error(err))
	}
	return output, nil
}

func (c *Coordinator) notify(ctx context.Context, sessionID string, item *models.QueueItem) {
	event := models.StatusEvent{
		SessionID: sessionID,
		ItemID:    item.ID,
		Name:      item.Name,
		Status:    item.Status,
		Progress:  item.Progress,
		Error:     item.ErrorDetail,
		Timestamp: c.now(),
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.Warn("Failed to publish status event",
			zap.String("session_id", sessionID),
			zap.String("item_id", item.ID),
			zap.String("status", item.Status),
			zap.Error(fmt.Errorf("notify: %w", err)))
	}
}
