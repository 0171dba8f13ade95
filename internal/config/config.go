package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solvire/fartemis/resolution"
)

// Config конфигурация приложения
type Config struct {
	// Сервер
	Port string `yaml:"port"`

	// База данных истории запусков
	DatabasePath string `yaml:"database_path"`

	// Провайдеры поиска
	TavilyAPIKey    string        `yaml:"tavily_api_key"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	ProviderPacing  time.Duration `yaml:"provider_pacing"`

	// Квоты скользящего окна, запросов на окно
	QuotaWindow     time.Duration `yaml:"quota_window"`
	DuckDuckGoQuota int           `yaml:"duckduckgo_quota"`
	TavilyQuota     int           `yaml:"tavily_quota"`
	HTMLSearchQuota int           `yaml:"html_search_quota"`

	// Запуск резолюции
	RunDeadline        time.Duration `yaml:"run_deadline"`
	UnavailableRetries int           `yaml:"unavailable_retries"`

	// Кэш результатов
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheEnabled bool          `yaml:"cache_enabled"`

	// Логирование
	LogLevel string `yaml:"log_level"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Если задан FARTEMIS_CONFIG, значения из YAML-файла берутся поверх окружения.
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:         getEnv("SERVER_PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "lookups.db"),

		TavilyAPIKey:    os.Getenv("TAVILY_API_KEY"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 5*time.Second),
		ProviderPacing:  getEnvDuration("PROVIDER_PACING", time.Second),

		QuotaWindow:     getEnvDuration("QUOTA_WINDOW", time.Minute),
		DuckDuckGoQuota: getEnvInt("DUCKDUCKGO_QUOTA", 30),
		TavilyQuota:     getEnvInt("TAVILY_QUOTA", 20),
		HTMLSearchQuota: getEnvInt("HTML_SEARCH_QUOTA", 10),

		RunDeadline:        getEnvDuration("RUN_DEADLINE", 15*time.Second),
		UnavailableRetries: getEnvInt("UNAVAILABLE_RETRIES", 2),

		CacheTTL:     getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheEnabled: getEnv("CACHE_ENABLED", "true") == "true",

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if path := os.Getenv("FARTEMIS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// ResolutionConfig строит конфигурацию движка резолюции
func (c *Config) ResolutionConfig() *resolution.Config {
	cfg := resolution.DefaultConfig()
	cfg.Quotas = map[string]resolution.ProviderQuota{
		"duckduckgo":      {Requests: c.DuckDuckGoQuota, Window: c.QuotaWindow},
		"tavily":          {Requests: c.TavilyQuota, Window: c.QuotaWindow},
		"duckduckgo-html": {Requests: c.HTMLSearchQuota, Window: c.QuotaWindow},
	}
	cfg.RunDeadline = c.RunDeadline
	cfg.UnavailableRetries = c.UnavailableRetries
	return cfg
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
