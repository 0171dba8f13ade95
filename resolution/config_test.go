package resolution

import (
	"errors"
	"testing"
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{
			name:      "empty priority",
			mutate:    func(c *Config) { c.ProviderPriority = nil },
			wantField: "provider_priority",
		},
		{
			name:      "blank provider name",
			mutate:    func(c *Config) { c.ProviderPriority = []string{"duckduckgo", ""} },
			wantField: "provider_priority",
		},
		{
			name:      "duplicate provider",
			mutate:    func(c *Config) { c.ProviderPriority = []string{"tavily", "tavily"} },
			wantField: "provider_priority",
		},
		{
			name:      "zero quota requests",
			mutate:    func(c *Config) { c.Quotas["tavily"] = ProviderQuota{Requests: 0, Window: time.Minute} },
			wantField: "quotas.tavily",
		},
		{
			name:      "zero quota window",
			mutate:    func(c *Config) { c.Quotas["tavily"] = ProviderQuota{Requests: 10} },
			wantField: "quotas.tavily",
		},
		{
			name:      "negative weight",
			mutate:    func(c *Config) { c.Weights.CompanyMatch = -1 },
			wantField: "weights.company_match",
		},
		{
			name:      "freshness not decreasing",
			mutate:    func(c *Config) { c.Weights.FreshnessMid = c.Weights.FreshnessRecent },
			wantField: "weights.freshness",
		},
		{
			name:      "zero high confidence",
			mutate:    func(c *Config) { c.Thresholds.HighConfidence = 0 },
			wantField: "thresholds.high_confidence",
		},
		{
			name:      "negative score gap",
			mutate:    func(c *Config) { c.Thresholds.ScoreGap = -0.5 },
			wantField: "thresholds.score_gap",
		},
		{
			name:      "zero confidence scale",
			mutate:    func(c *Config) { c.Thresholds.ConfidenceScale = 0 },
			wantField: "thresholds.confidence_scale",
		},
		{
			name:      "tier bounds inverted",
			mutate:    func(c *Config) { c.Thresholds.TierHigh = 0.5 },
			wantField: "thresholds.tier_high",
		},
		{
			name:      "zero run deadline",
			mutate:    func(c *Config) { c.RunDeadline = 0 },
			wantField: "run_deadline",
		},
		{
			name:      "negative retries",
			mutate:    func(c *Config) { c.UnavailableRetries = -1 },
			wantField: "unavailable_retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var confErr *types.ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("expected ConfigurationError, got %T", err)
			}
			if confErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", confErr.Field, tt.wantField)
			}
		})
	}
}

func TestPriorityRank(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.PriorityRank("duckduckgo"); got != 0 {
		t.Errorf("duckduckgo rank = %d, want 0", got)
	}
	if got := cfg.PriorityRank("tavily"); got != 1 {
		t.Errorf("tavily rank = %d, want 1", got)
	}
	// Неизвестный провайдер сортируется после всех известных
	if got := cfg.PriorityRank("bing"); got != len(cfg.ProviderPriority) {
		t.Errorf("unknown rank = %d, want %d", got, len(cfg.ProviderPriority))
	}
}
