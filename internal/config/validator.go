package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	// Валидация пути к базе данных истории
	if c.DatabasePath == "" {
		errors = append(errors, "database path is required")
	}

	// Валидация таймаутов провайдеров
	if c.ProviderTimeout < time.Second {
		errors = append(errors, "provider timeout must be at least 1 second")
	}
	if c.ProviderPacing <= 0 {
		errors = append(errors, "provider pacing must be positive")
	}

	// Валидация квот скользящего окна
	if c.QuotaWindow <= 0 {
		errors = append(errors, "quota window must be positive")
	}
	if c.DuckDuckGoQuota < 1 {
		errors = append(errors, "duckduckgo quota must be at least 1")
	}
	if c.TavilyQuota < 1 {
		errors = append(errors, "tavily quota must be at least 1")
	}
	if c.HTMLSearchQuota < 1 {
		errors = append(errors, "html search quota must be at least 1")
	}

	// Валидация параметров запуска
	if c.RunDeadline < time.Second {
		errors = append(errors, "run deadline must be at least 1 second")
	}
	if c.UnavailableRetries < 0 {
		errors = append(errors, "unavailable retries cannot be negative")
	}

	// Валидация кэша результатов
	if c.CacheEnabled && c.CacheTTL < time.Minute {
		errors = append(errors, "cache TTL must be at least 1 minute")
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию
func GetDefaults() *Config {
	return &Config{
		Port:               "8080",
		DatabasePath:       "lookups.db",
		ProviderTimeout:    5 * time.Second,
		ProviderPacing:     time.Second,
		QuotaWindow:        time.Minute,
		DuckDuckGoQuota:    30,
		TavilyQuota:        20,
		HTMLSearchQuota:    10,
		RunDeadline:        15 * time.Second,
		UnavailableRetries: 2,
		CacheTTL:           24 * time.Hour,
		CacheEnabled:       true,
		LogLevel:           "INFO",
	}
}
