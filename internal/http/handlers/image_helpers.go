package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/interaction"
	"github.com/phambaophuc/masscrop/internal/services/processor"
	"github.com/phambaophuc/masscrop/internal/services/session"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"go.uber.org/zap"
)

const (
	filesParamKey = "files"
	maxCacheAge   = 3600
)

var errFileTooLarge = errors.New("file too large")

// === REQUEST PARSING ===

func (h *SessionHandler) parseUploads(c *gin.Context) ([]models.Upload, error) {
	if err := c.Request.ParseMultipartForm(h.config.Storage.MaxFileSize); err != nil {
		return nil, fmt.Errorf("failed to parse form data: %w", err)
	}

	files := c.Request.MultipartForm.File[filesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	uploads := make([]models.Upload, 0, len(files))
	for _, fh := range files {
		if h.config.Storage.MaxFileSize > 0 && fh.Size > h.config.Storage.MaxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", errFileTooLarge, fh.Filename, fh.Size, h.config.Storage.MaxFileSize)
		}

		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", fh.Filename, err)
		}
		uploads = append(uploads, models.Upload{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// parsePreviewSize returns 0 for the raw upload, or the thumbnail size.
func parsePreviewSize(value, thumbnail string, configured int) (int, error) {
	if value == "" {
		if on, _ := strconv.ParseBool(thumbnail); on {
			if configured <= 0 {
				configured = processor.DefaultPreviewSize
			}
			return configured, nil
		}
		return 0, nil
	}
	size, err := strconv.Atoi(value)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("invalid max: must be a positive integer")
	}
	return size, nil
}

// === RESPONSE HANDLING ===

func (h *SessionHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *SessionHandler) respondOK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

// respondServiceError maps service errors onto HTTP status codes. Anything
// unrecognized is logged and reported as a 500.
func (h *SessionHandler) respondServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("session_id", c.Param("id")),
			zap.Error(err))
		h.respondError(c, status, "Internal server error")
		return
	}
	h.respondError(c, status, err.Error())
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrItemNotFound),
		errors.Is(err, session.ErrNoPayload):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBatchRunning),
		errors.Is(err, interaction.ErrGestureActive):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManyFiles),
		errors.Is(err, errFileTooLarge),
		errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNotCroppable),
		errors.Is(err, session.ErrInvalidCrop),
		errors.Is(err, session.ErrNoSelection),
		errors.Is(err, interaction.ErrUnknownHandle),
		errors.Is(err, geometry.ErrInvalidAspectRatio),
		errors.Is(err, models.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func attachment(c *gin.Context, artifact *models.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// === UTILITY METHODS ===

func (h *SessionHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
