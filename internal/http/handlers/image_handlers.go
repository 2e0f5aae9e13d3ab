package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/config"
	"github.com/phambaophuc/image-resizer/internal/metrics"
	"github.com/phambaophuc/image-resizer/internal/models"
	"github.com/phambaophuc/image-resizer/internal/resolver"
	"github.com/phambaophuc/image-resizer/internal/services/cache"
	"github.com/phambaophuc/image-resizer/internal/services/preset"
	"github.com/phambaophuc/image-resizer/internal/services/processor"
	"github.com/phambaophuc/image-resizer/internal/services/workspace"
	"go.uber.org/zap"
)

const (
	imageParamKey   = "image"
	imageIDQueryKey = "image_id"
	filenameHeader  = "X-Filename"
	multipartSlack  = 1 << 20
)

type ImageHandler struct {
	processor *processor.ImageProcessor
	workspace *workspace.Workspace
	cache     cache.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
	config    *config.Config
}

// NewImageHandler wires the handler. store may be nil to disable caching.
func NewImageHandler(
	processor *processor.ImageProcessor,
	workspace *workspace.Workspace,
	store cache.Store,
	metrics *metrics.Metrics,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		processor: processor,
		workspace: workspace,
		cache:     store,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

// UploadImage accepts a file picked in a form (multipart field "image").
func (h *ImageHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Upload.MaxFileSize+multipartSlack)

	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		if isBodyTooLarge(err) {
			h.metrics.Upload("too_large")
			h.respondError(c, http.StatusRequestEntityTooLarge, "Image file is too large")
			return
		}
		h.respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	h.loadImage(c, file, header.Filename)
}

// DropImage accepts the raw bytes of a dropped file as the request body.
func (h *ImageHandler) DropImage(c *gin.Context) {
	filename := c.GetHeader(filenameHeader)
	if filename == "" {
		filename = c.Query("filename")
	}

	h.loadImage(c, c.Request.Body, filename)
}

func (h *ImageHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    toWorkspaceState(h.workspace.Snapshot()),
	})
}

// HandleEvent applies one edit. Values that do not parse are ignored, not
// rejected: the response simply reports changed=false.
func (h *ImageHandler) HandleEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid event: "+err.Error())
		return
	}

	kind, err := resolver.ParseEventKind(req.Type)
	if err != nil || kind == resolver.EventLoad {
		h.respondError(c, http.StatusBadRequest, "Invalid event type")
		return
	}

	presetName := req.Name
	if kind == resolver.EventPreset && presetName == "" {
		presetName = string(req.Value)
	}

	snap, changed := h.workspace.Dispatch(resolver.Event{
		Kind:    kind,
		Value:   string(req.Value),
		Enabled: req.Enabled,
	}, presetName)
	h.metrics.Event(string(kind), changed)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: models.EventResponse{
			Changed: changed,
			State:   toWorkspaceState(snap),
		},
	})
}

func (h *ImageHandler) ListPresets(c *gin.Context) {
	loaded := h.workspace.Snapshot().Loaded()

	presets := h.workspace.Presets()
	sizes := make([]models.PresetSize, 0, len(presets))
	for _, p := range presets {
		// Original only makes sense once there is an image.
		if p.Name == resolver.OriginalPreset && !loaded {
			continue
		}
		sizes = append(sizes, models.PresetSize{
			Name:   p.Name,
			Label:  preset.Label(p),
			Width:  p.Width,
			Height: p.Height,
		})
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    sizes,
	})
}

// Export renders the loaded image at the current target size and quality
// and sends it as a download.
func (h *ImageHandler) Export(c *gin.Context) {
	job, err := h.workspace.ExportJob(c.Query(imageIDQueryKey))
	if err != nil {
		h.respondError(c, http.StatusConflict, err.Error())
		return
	}

	cacheKey := cache.GenerateCacheKey(job.ImageID, job.Size, job.Quality)
	if data, found := h.tryGetFromCache(c.Request.Context(), cacheKey); found {
		h.metrics.Export(true, len(data))
		h.respondWithImage(c, data, job, true)
		return
	}

	buffer, err := h.processor.Export(job.Image, job.Size, job.Quality)
	if err != nil {
		h.handleExportError(c, err, job)
		return
	}

	data := buffer.Bytes()
	h.setCacheData(c.Request.Context(), cacheKey, data)
	h.metrics.Export(false, len(data))
	h.respondWithImage(c, data, job, false)
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := h.checkServices(c.Request.Context())
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:      overall,
			Timestamp:   time.Now(),
			ImageLoaded: h.workspace.Snapshot().Loaded(),
			Presets:     h.staticPresetCount(),
			Services:    services,
		},
	})
}
