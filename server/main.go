package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/config"
	"github.com/phambaophuc/image-resizer/internal/http/handlers"
	"github.com/phambaophuc/image-resizer/internal/http/routes"
	"github.com/phambaophuc/image-resizer/internal/metrics"
	"github.com/phambaophuc/image-resizer/internal/services/cache"
	"github.com/phambaophuc/image-resizer/internal/services/preset"
	"github.com/phambaophuc/image-resizer/internal/services/processor"
	"github.com/phambaophuc/image-resizer/internal/services/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Presets
	catalog, err := loadCatalog(ctx, cfg.Presets, logger)
	if err != nil {
		logger.Fatal("Failed to load presets", zap.Error(err))
	}

	// Cache
	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Cache is not reachable, exports will be rendered every time",
				zap.String("backend", store.Name()), zap.Error(err))
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.InitializeMetrics(registry)

	// Initialize services
	imageProcessor := processor.NewImageProcessor(processor.Options{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		MaxPixels:    cfg.Export.MaxPixels,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})
	ws := workspace.New(catalog)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(imageProcessor, ws, store, appMetrics, logger, cfg)

	router := routes.NewRouter(imageHandler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("cache", cfg.Cache.Backend),
			zap.Int("presets", catalog.Len()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	stop()

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadCatalog uses the built-in presets unless a file is configured. With
// watching enabled the catalog follows the file until ctx is done.
func loadCatalog(ctx context.Context, cfg config.PresetsConfig, logger *zap.Logger) (*preset.Catalog, error) {
	if cfg.File == "" {
		return preset.NewCatalog(preset.DefaultPresets())
	}

	presets, err := preset.LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}
	catalog, err := preset.NewCatalog(presets)
	if err != nil {
		return nil, err
	}

	if cfg.Watch {
		watcher, err := preset.NewWatcher(cfg.File, catalog, logger)
		if err != nil {
			return nil, err
		}
		go watcher.Run(ctx)
	}

	logger.Info("Presets loaded", zap.String("path", cfg.File), zap.Int("count", catalog.Len()))
	return catalog, nil
}

// newStore returns a nil Store when caching is disabled.
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return cache.NewRedisStore(cache.RedisOptions{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Cache.Duration,
			MaxRetries:   cfg.Redis.MaxRetries,
			Timeout:      cfg.Redis.Timeout,
			PoolSize:     10,
			MinIdleConns: 5,
		}), nil
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(cache.MemoryOptions{
			MaxCost: cfg.Cache.MaxCost,
			TTL:     cfg.Cache.Duration,
		})
	default:
		return nil, nil
	}
}
