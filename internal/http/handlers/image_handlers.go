package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/masscrop/internal/config"
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/batch"
	"github.com/phambaophuc/masscrop/internal/services/events"
	"github.com/phambaophuc/masscrop/internal/services/processor"
	"github.com/phambaophuc/masscrop/internal/services/session"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"github.com/phambaophuc/masscrop/pkg/utils"
	"go.uber.org/zap"
)

type SessionHandler struct {
	store       *session.Store
	coordinator *batch.Coordinator
	processor   *processor.ImageProcessor
	storage     *storage.StorageService
	publisher   *events.Publisher
	logger      *zap.Logger
	config      *config.Config
}

// NewSessionHandler wires the HTTP surface. storage and publisher may be nil
// when their backends are not configured.
func NewSessionHandler(
	store *session.Store,
	coordinator *batch.Coordinator,
	processor *processor.ImageProcessor,
	storage *storage.StorageService,
	publisher *events.Publisher,
	logger *zap.Logger,
	config *config.Config,
) *SessionHandler {
	return &SessionHandler{
		store:       store,
		coordinator: coordinator,
		processor:   processor,
		storage:     storage,
		publisher:   publisher,
		logger:      logger,
		config:      config,
	}
}

// === SESSIONS ===

func (h *SessionHandler) CreateSession(c *gin.Context) {
	settings, err := models.NewSettings(
		h.config.Processing.DefaultFormat,
		h.config.Processing.DefaultQuality,
		h.config.Processing.DefaultAspectRatio,
	)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	view, err := h.store.Create(settings)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if c.Request.ContentLength > 0 {
		var req models.SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.store.Delete(view.ID)
			h.respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := h.store.UpdateSettings(view.ID, req); err != nil {
			h.store.Delete(view.ID)
			h.respondServiceError(c, err)
			return
		}
		if view, err = h.store.Get(view.ID); err != nil {
			h.respondServiceError(c, err)
			return
		}
	}

	h.respondOK(c, http.StatusCreated, view)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, view)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) UpdateSettings(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.store.UpdateSettings(c.Param("id"), req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, settings)
}

// === QUEUE ===

func (h *SessionHandler) AddItems(c *gin.Context) {
	uploads, err := h.parseUploads(c)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		h.respondError(c, status, err.Error())
		return
	}

	items, err := h.store.AddFiles(c.Param("id"), uploads)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusCreated, items)
}

func (h *SessionHandler) ClearItems(c *gin.Context) {
	if err := h.store.Clear(c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) RemoveItem(c *gin.Context) {
	if err := h.store.Remove(c.Param("id"), c.Param("item")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) SelectItem(c *gin.Context) {
	if err := h.store.Select(c.Param("id"), c.Param("item")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, gin.H{"selected_id": c.Param("item")})
}

func (h *SessionHandler) SetCrop(c *gin.Context) {
	var req models.CropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.SetCrop(c.Param("id"), c.Param("item"), req.Region())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, item)
}

func (h *SessionHandler) Broadcast(c *gin.Context) {
	updated, err := h.store.Broadcast(c.Param("id"), c.Param("item"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, gin.H{"updated": updated})
}

// Preview serves the bytes stored at intake. With thumbnail=true it renders
// a JPEG thumbnail at the configured preview size; max=N picks the size.
func (h *SessionHandler) Preview(c *gin.Context) {
	maxDim, err := parsePreviewSize(c.Query("max"), c.Query("thumbnail"), h.config.Storage.PreviewSize)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	_, blob, err := h.store.Preview(c.Param("id"), c.Param("item"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxCacheAge))
	if maxDim == 0 {
		c.Data(http.StatusOK, blob.ContentType, blob.Data)
		return
	}

	thumb, err := h.processor.Preview(blob.Data, maxDim)
	if err != nil {
		h.logger.Warn("Failed to render preview", zap.String("item_id", c.Param("item")), zap.Error(err))
		h.respondError(c, http.StatusUnprocessableEntity, "Failed to render preview")
		return
	}
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func (h *SessionHandler) Output(c *gin.Context) {
	item, blob, err := h.store.Output(c.Param("id"), c.Param("item"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	attachment(c, &models.Artifact{
		Filename:    utils.OutputFilename(models.OutputPrefix, item.Name),
		ContentType: blob.ContentType,
		Data:        blob.Data,
		Entries:     1,
	})
}

// === BATCH ===

// Process runs the batch synchronously. The run outlives a client
// disconnect; only server shutdown stops it between items.
func (h *SessionHandler) Process(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	summary, err := h.coordinator.Run(ctx, c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, summary)
}

func (h *SessionHandler) Download(c *gin.Context) {
	artifact, ok := h.artifact(c)
	if !ok {
		return
	}
	attachment(c, artifact)
}

// Export uploads the aggregated artifact to the configured bucket.
func (h *SessionHandler) Export(c *gin.Context) {
	artifact, ok := h.artifact(c)
	if !ok {
		return
	}

	result, err := h.storage.Export(c.Request.Context(), artifact)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, result)
}

// artifact aggregates the session's results. It writes the response itself
// and reports false when there is nothing to send.
func (h *SessionHandler) artifact(c *gin.Context) (*models.Artifact, bool) {
	view, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return nil, false
	}
	if view.CompletedCount() == 0 {
		c.Status(http.StatusNoContent)
		return nil, false
	}

	artifact, err := h.coordinator.Artifact(view.ID)
	if err != nil {
		h.respondServiceError(c, err)
		return nil, false
	}
	if artifact == nil {
		c.Status(http.StatusNoContent)
		return nil, false
	}
	return artifact, true
}

// === SYSTEM ===

func (h *SessionHandler) AspectRatios(c *gin.Context) {
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxCacheAge))
	h.respondOK(c, http.StatusOK, geometry.Presets())
}

func (h *SessionHandler) HealthCheck(c *gin.Context) {
	services := h.storage.HealthCheck(c.Request.Context())
	services["rabbitmq"] = h.publisher.HealthCheck()
	overall := h.calculateOverallHealth(services)

	cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		h.logger.Warn("Failed to get cache stats", zap.Error(err))
	}

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Sessions:  h.store.Len(),
			Services:  services,
			Cache:     cacheStats,
		},
	})
}
