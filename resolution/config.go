package resolution

import (
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

// ScoringWeights веса факторов оценки кандидата.
// Исторически были жестко зашитыми константами; вынесены в конфигурацию,
// чтобы их можно было настраивать и тестировать отдельно от алгоритма.
type ScoringWeights struct {
	NameInURL          float64 `json:"name_in_url" yaml:"name_in_url"`
	FirstNameInContext float64 `json:"first_name_in_context" yaml:"first_name_in_context"`
	LastNameInContext  float64 `json:"last_name_in_context" yaml:"last_name_in_context"`
	CompanyMatch       float64 `json:"company_match" yaml:"company_match"`
	EmploymentRelation float64 `json:"employment_relation" yaml:"employment_relation"`
	HandlePattern      float64 `json:"handle_pattern" yaml:"handle_pattern"`
	TitleRelevance     float64 `json:"title_relevance" yaml:"title_relevance"`
	FreshnessRecent    float64 `json:"freshness_recent" yaml:"freshness_recent"`
	FreshnessMid       float64 `json:"freshness_mid" yaml:"freshness_mid"`
	FreshnessOld       float64 `json:"freshness_old" yaml:"freshness_old"`
	Corroboration      float64 `json:"corroboration" yaml:"corroboration"`
}

// Thresholds пороги принятия решения по итогам оценки
type Thresholds struct {
	// HighConfidence минимальная итоговая оценка лучшего кандидата для статуса resolved
	HighConfidence float64 `json:"high_confidence" yaml:"high_confidence"`
	// ScoreGap минимальный отрыв лучшего кандидата от второго для статуса resolved
	ScoreGap float64 `json:"score_gap" yaml:"score_gap"`
	// ConfidenceScale делитель для перевода итоговой оценки в уверенность 0..1
	ConfidenceScale float64 `json:"confidence_scale" yaml:"confidence_scale"`
	// TierHigh и TierMedium границы ярусов уверенности
	TierHigh   float64 `json:"tier_high" yaml:"tier_high"`
	TierMedium float64 `json:"tier_medium" yaml:"tier_medium"`
}

// ProviderQuota квота провайдера: не более Requests запросов в скользящем окне Window
type ProviderQuota struct {
	Requests int           `json:"requests" yaml:"requests"`
	Window   time.Duration `json:"window" yaml:"window"`
}

// Config конфигурация движка резолюции
type Config struct {
	// ProviderPriority детерминированный порядок провайдеров для разрешения ничьих
	ProviderPriority []string `json:"provider_priority" yaml:"provider_priority"`

	// Quotas квоты запросов по провайдерам
	Quotas map[string]ProviderQuota `json:"quotas" yaml:"quotas"`

	Weights    ScoringWeights `json:"weights" yaml:"weights"`
	Thresholds Thresholds     `json:"thresholds" yaml:"thresholds"`

	// RunDeadline общий дедлайн одного запуска (не per-provider)
	RunDeadline time.Duration `json:"run_deadline" yaml:"run_deadline"`

	// UnavailableRetries число повторов при временной недоступности провайдера.
	// RateLimited внутри запуска не повторяется никогда.
	UnavailableRetries int `json:"unavailable_retries" yaml:"unavailable_retries"`

	// PrefixTokens опускаемые приставки фамилий ("van", "de", "la" и т.п.)
	PrefixTokens []string `json:"prefix_tokens" yaml:"prefix_tokens"`
}

// DefaultConfig возвращает конфигурацию по умолчанию.
// Значения порогов эмпирические, калиброваны по ручным прогонам.
func DefaultConfig() *Config {
	return &Config{
		ProviderPriority: []string{"duckduckgo", "tavily", "duckduckgo-html"},
		Quotas: map[string]ProviderQuota{
			"duckduckgo":      {Requests: 30, Window: time.Minute},
			"tavily":          {Requests: 20, Window: time.Minute},
			"duckduckgo-html": {Requests: 10, Window: time.Minute},
		},
		Weights: ScoringWeights{
			NameInURL:          10.0,
			FirstNameInContext: 3.0,
			LastNameInContext:  3.0,
			CompanyMatch:       5.0,
			EmploymentRelation: 2.0,
			HandlePattern:      4.0,
			TitleRelevance:     2.0,
			FreshnessRecent:    3.0,
			FreshnessMid:       2.0,
			FreshnessOld:       1.0,
			Corroboration:      4.0,
		},
		Thresholds: Thresholds{
			HighConfidence:  12.0,
			ScoreGap:        3.0,
			ConfidenceScale: 20.0,
			TierHigh:        0.8,
			TierMedium:      0.6,
		},
		RunDeadline:        15 * time.Second,
		UnavailableRetries: 2,
		PrefixTokens:       []string{"van", "von", "de", "del", "der", "den", "da", "di", "la", "le", "mac", "mc"},
	}
}

// Validate проверяет конфигурацию до любых обращений к провайдерам.
// Возвращает ConfigurationError — единственную фатальную ошибку движка.
func (c *Config) Validate() error {
	if c == nil {
		return &types.ConfigurationError{Field: "config", Reason: "must not be nil"}
	}
	if len(c.ProviderPriority) == 0 {
		return &types.ConfigurationError{Field: "provider_priority", Reason: "at least one provider is required"}
	}
	seen := make(map[string]bool, len(c.ProviderPriority))
	for _, name := range c.ProviderPriority {
		if name == "" {
			return &types.ConfigurationError{Field: "provider_priority", Reason: "provider name must not be empty"}
		}
		if seen[name] {
			return &types.ConfigurationError{Field: "provider_priority", Reason: "duplicate provider " + name}
		}
		seen[name] = true
	}
	for name, quota := range c.Quotas {
		if quota.Requests <= 0 {
			return &types.ConfigurationError{Field: "quotas." + name, Reason: "requests must be positive"}
		}
		if quota.Window <= 0 {
			return &types.ConfigurationError{Field: "quotas." + name, Reason: "window must be positive"}
		}
	}
	for field, w := range map[string]float64{
		"weights.name_in_url":           c.Weights.NameInURL,
		"weights.first_name_in_context": c.Weights.FirstNameInContext,
		"weights.last_name_in_context":  c.Weights.LastNameInContext,
		"weights.company_match":         c.Weights.CompanyMatch,
		"weights.employment_relation":   c.Weights.EmploymentRelation,
		"weights.handle_pattern":        c.Weights.HandlePattern,
		"weights.title_relevance":       c.Weights.TitleRelevance,
		"weights.freshness_recent":      c.Weights.FreshnessRecent,
		"weights.freshness_mid":         c.Weights.FreshnessMid,
		"weights.freshness_old":         c.Weights.FreshnessOld,
		"weights.corroboration":         c.Weights.Corroboration,
	} {
		if w < 0 {
			return &types.ConfigurationError{Field: field, Reason: "must not be negative"}
		}
	}
	// Свежесть должна строго убывать с возрастом
	if !(c.Weights.FreshnessRecent > c.Weights.FreshnessMid && c.Weights.FreshnessMid > c.Weights.FreshnessOld) {
		return &types.ConfigurationError{Field: "weights.freshness", Reason: "bonuses must strictly decrease with age"}
	}
	if c.Thresholds.HighConfidence <= 0 {
		return &types.ConfigurationError{Field: "thresholds.high_confidence", Reason: "must be positive"}
	}
	if c.Thresholds.ScoreGap < 0 {
		return &types.ConfigurationError{Field: "thresholds.score_gap", Reason: "must not be negative"}
	}
	if c.Thresholds.ConfidenceScale <= 0 {
		return &types.ConfigurationError{Field: "thresholds.confidence_scale", Reason: "must be positive"}
	}
	if c.Thresholds.TierHigh <= c.Thresholds.TierMedium {
		return &types.ConfigurationError{Field: "thresholds.tier_high", Reason: "must exceed tier_medium"}
	}
	if c.RunDeadline <= 0 {
		return &types.ConfigurationError{Field: "run_deadline", Reason: "must be positive"}
	}
	if c.UnavailableRetries < 0 {
		return &types.ConfigurationError{Field: "unavailable_retries", Reason: "must not be negative"}
	}
	return nil
}

// PriorityRank возвращает позицию провайдера в порядке приоритета.
// Неизвестные провайдеры уходят в конец.
func (c *Config) PriorityRank(provider string) int {
	for i, name := range c.ProviderPriority {
		if name == provider {
			return i
		}
	}
	return len(c.ProviderPriority)
}
