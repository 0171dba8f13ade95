package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solvire/fartemis/internal/infrastructure/persistence"
	"github.com/solvire/fartemis/reporting"
	"github.com/solvire/fartemis/resolution"
)

// Config конфигурация HTTP сервера
type Config struct {
	Port  string
	Cache *CacheConfig
}

// Server HTTP сервер поиска профилей
type Server struct {
	config      *Config
	engine      *resolution.Engine
	reliability *resolution.ReliabilityTracker
	repo        *persistence.LookupRepository
	cache       *ResultCache
	logger      *slog.Logger

	httpServer *http.Server
}

// NewServer создает новый сервер
func NewServer(config *Config, engine *resolution.Engine, reliability *resolution.ReliabilityTracker, repo *persistence.LookupRepository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cacheConfig := config.Cache
	if cacheConfig == nil {
		cacheConfig = &CacheConfig{
			Enabled:         true,
			TTL:             24 * time.Hour,
			CleanupInterval: time.Hour,
			MaxSize:         1000,
		}
	}

	return &Server{
		config:      config,
		engine:      engine,
		reliability: reliability,
		repo:        repo,
		cache:       NewResultCache(cacheConfig),
		logger:      logger,
	}
}

// buildHTTPHandler собирает gin router со всеми маршрутами
func (s *Server) buildHTTPHandler() http.Handler {
	// Режим Gin: release для продакшена, переопределяется через GIN_MODE
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.POST("/lookup", s.handleLookup)
		api.GET("/lookups", s.handleListLookups)
		api.GET("/lookups/:run_id", s.handleGetLookup)
		api.GET("/lookups/export", s.handleExportLookups)
		api.GET("/providers/stats", s.handleProviderStats)
		api.GET("/health", s.handleHealth)
	}

	return router
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.buildHTTPHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Сервер запускается на порту %s", s.config.Port)
	log.Printf("API доступно по адресу: http://localhost%s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Printf("Остановка сервера...")
	return s.httpServer.Shutdown(ctx)
}

// exporter строит экспортер истории запусков
func (s *Server) exporter() *reporting.Exporter {
	return reporting.NewExporter()
}
