package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/models"
	"github.com/phambaophuc/image-resizer/internal/resolver"
	"github.com/phambaophuc/image-resizer/internal/services/processor"
	"github.com/phambaophuc/image-resizer/internal/services/workspace"
	"github.com/phambaophuc/image-resizer/pkg/utils"
	"go.uber.org/zap"
)

// === UPLOAD ===

// loadImage is shared by the form upload and the drop upload. A failed decode
// never reaches the workspace, so the previous image stays in place.
func (h *ImageHandler) loadImage(c *gin.Context, r io.Reader, filename string) {
	decoded, err := h.processor.Decode(r)
	if err != nil {
		status, outcome := uploadErrorStatus(err)
		h.metrics.Upload(outcome)
		h.logger.Warn("Upload rejected",
			zap.String("filename", filename),
			zap.String("outcome", outcome),
			zap.Error(err))
		h.respondError(c, status, "Invalid image: "+err.Error())
		return
	}

	snap := h.workspace.Load(decoded, filename)
	h.metrics.Upload("ok")
	h.logger.Info("Image loaded",
		zap.String("image_id", snap.ImageID),
		zap.String("filename", filename),
		zap.String("format", decoded.Format),
		zap.Int("width", decoded.Size.Width),
		zap.Int("height", decoded.Size.Height),
		zap.Int64("file_size", decoded.FileSize))

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    toWorkspaceState(snap),
	})
}

func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, processor.ErrTooLarge), isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, processor.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type"
	default:
		return http.StatusBadRequest, "decode_failure"
	}
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ImageHandler) respondWithImage(c *gin.Context, data []byte, job workspace.ExportJob, cacheHit bool) {
	cacheStatus := "MISS"
	if cacheHit {
		cacheStatus = "HIT"
	}

	c.Header("Content-Disposition", utils.AttachmentDisposition(processor.OutputFilename))
	c.Header("X-Cache", cacheStatus)
	c.Header("X-Image-ID", job.ImageID)
	c.Header("X-Image-Width", strconv.Itoa(job.Size.Width))
	c.Header("X-Image-Height", strconv.Itoa(job.Size.Height))
	c.Data(http.StatusOK, processor.OutputContentType, data)
}

func (h *ImageHandler) handleExportError(c *gin.Context, err error, job workspace.ExportJob) {
	if errors.Is(err, processor.ErrTooLarge) {
		h.respondError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	h.logger.Error("Export failed",
		zap.String("image_id", job.ImageID),
		zap.Int("width", job.Size.Width),
		zap.Int("height", job.Size.Height),
		zap.Error(err))
	h.respondError(c, http.StatusInternalServerError, "Failed to export image")
}

func toWorkspaceState(snap workspace.Snapshot) models.WorkspaceState {
	return models.WorkspaceState{
		Loaded:          snap.Loaded(),
		ImageID:         snap.ImageID,
		Filename:        snap.Filename,
		Format:          snap.Format,
		Original:        snap.State.Original,
		Target:          snap.State.Target,
		AspectRatio:     snap.State.AspectRatio,
		LockAspectRatio: snap.State.Locked,
		Quality:         snap.State.Quality,
	}
}

// === CACHE OPERATIONS ===

func (h *ImageHandler) tryGetFromCache(ctx context.Context, cacheKey string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}

	cachedData, err := h.cache.Get(ctx, cacheKey)
	if err != nil {
		h.logger.Warn("Failed to read cache", zap.String("cache_key", cacheKey), zap.Error(err))
		return nil, false
	}
	if cachedData == nil {
		return nil, false
	}

	h.logger.Debug("Cache hit", zap.String("cache_key", cacheKey))
	return cachedData, true
}

func (h *ImageHandler) setCacheData(ctx context.Context, cacheKey string, data []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, cacheKey, data); err != nil {
		h.logger.Warn("Failed to cache data", zap.String("cache_key", cacheKey), zap.Error(err))
	}
}

// === UTILITY METHODS ===

func (h *ImageHandler) checkServices(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if h.cache == nil {
		status["cache"] = "not configured"
		return status
	}

	if err := h.cache.Ping(ctx); err != nil {
		status[h.cache.Name()] = "unhealthy: " + err.Error()
	} else {
		status[h.cache.Name()] = "healthy"
	}
	return status
}

func (h *ImageHandler) staticPresetCount() int {
	count := 0
	for _, p := range h.workspace.Presets() {
		if p.Name != resolver.OriginalPreset {
			count++
		}
	}
	return count
}

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
