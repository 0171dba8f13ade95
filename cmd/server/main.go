package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solvire/fartemis/internal/config"
	"github.com/solvire/fartemis/internal/infrastructure/persistence"
	"github.com/solvire/fartemis/providers"
	"github.com/solvire/fartemis/resolution"
	"github.com/solvire/fartemis/resolution/types"
	"github.com/solvire/fartemis/server"
)

func main() {
	log.Println("Запуск fartemis profile resolution server...")

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	log.Printf("Конфигурация загружена. Порт: %s", cfg.Port)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	// Открываем базу истории запусков
	repo, err := persistence.NewLookupRepository(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Ошибка открытия базы данных: %v", err)
	}
	defer repo.Close()
	log.Printf("База истории запусков: %s", cfg.DatabasePath)

	// Собираем провайдеры поиска
	searchProviders := map[string]types.SearchProviderInterface{}
	register := func(p types.SearchProviderInterface) {
		searchProviders[p.GetName()] = p
	}
	register(providers.NewDuckDuckGoProvider(cfg.ProviderTimeout, cfg.ProviderPacing))
	register(providers.NewTavilyProvider(cfg.TavilyAPIKey, cfg.ProviderTimeout, cfg.ProviderPacing))
	register(providers.NewHTMLSearchProvider(cfg.ProviderTimeout, cfg.ProviderPacing))
	if cfg.TavilyAPIKey == "" {
		log.Printf("TAVILY_API_KEY не задан, провайдер tavily будет пропускаться")
	}

	reliability := resolution.NewReliabilityTracker()
	engine, err := resolution.NewEngine(resolution.EngineConfig{
		Config:      cfg.ResolutionConfig(),
		Providers:   searchProviders,
		Reliability: reliability,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Ошибка создания движка резолюции: %v", err)
	}

	srv := server.NewServer(&server.Config{
		Port: cfg.Port,
		Cache: &server.CacheConfig{
			Enabled:         cfg.CacheEnabled,
			TTL:             cfg.CacheTTL,
			CleanupInterval: time.Hour,
			MaxSize:         1000,
		},
	}, engine, reliability, repo, logger)

	// Graceful shutdown по сигналу
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Ошибка остановки сервера: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
	log.Println("Сервер остановлен")
}

// logLevel переводит строковый уровень в slog.Level
func logLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
