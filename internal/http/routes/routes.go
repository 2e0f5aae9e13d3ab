package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/config"
	"github.com/phambaophuc/image-resizer/internal/http/handlers"
	"github.com/phambaophuc/image-resizer/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler   *handlers.ImageHandler
	metricsHandler http.Handler
	logger         *zap.Logger
	config         *config.Config
}

// NewRouter builds the router. metricsHandler may be nil to leave /metrics
// unmounted.
func NewRouter(
	imageHandler *handlers.ImageHandler,
	metricsHandler http.Handler,
	logger *zap.Logger,
	config *config.Config,
) *Router {
	return &Router{
		imageHandler:   imageHandler,
		metricsHandler: metricsHandler,
		logger:         logger,
		config:         config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.config.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)
		v1.GET("/presets", r.imageHandler.ListPresets)
		v1.GET("/state", r.imageHandler.GetState)
		v1.POST("/events", r.imageHandler.HandleEvent)
		v1.GET("/export", r.imageHandler.Export)

		image := v1.Group("/image")
		{
			image.POST("", r.imageHandler.UploadImage)
			image.PUT("", middleware.ValidateContentType(), r.imageHandler.DropImage)
		}
	}

	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image resizer is running",
		})
	})

	return router
}
