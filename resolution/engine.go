package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/solvire/fartemis/resolution/types"
)

// HintSource коллаборатор, поставляющий дополнительных кандидатов-подсказок
// (например, из LLM-извлечения свободного текста). Подсказки обрабатываются
// идентично нормализованному выходу провайдера и повышают полноту.
type HintSource interface {
	Hints(ctx context.Context, criteria types.SearchCriteria) []types.Candidate
}

// ConnectionCounter коллаборатор графа связей. При его отсутствии сигнал
// общих связей вносит ноль, а не ошибку.
type ConnectionCounter interface {
	SharedConnections(ctx context.Context, criteria types.SearchCriteria, candidate types.Candidate) int
}

// Engine движок резолюции: управляет машиной состояний одного запуска
// Pending -> Searching -> Scoring -> Resolved | Ambiguous | NotFound.
// Владеет жизненным циклом всех объектов запуска; между запусками не живет
// ничего, кроме учета квот и статистики надежности.
type Engine struct {
	cfg          *Config
	orchestrator *Orchestrator
	normalizer   *Normalizer
	hints        HintSource
	connections  ConnectionCounter
	logger       *slog.Logger
	sink         types.EventSink
}

// EngineConfig конфигурация движка резолюции
type EngineConfig struct {
	Config      *Config
	Providers   map[string]types.SearchProviderInterface
	Ledger      *QuotaLedger
	Reliability *ReliabilityTracker
	Hints       HintSource
	Connections ConnectionCounter
	Logger      *slog.Logger
	Sink        types.EventSink
}

// NewEngine создает новый движок. Конфигурация проверяется сразу:
// ошибки конфигурации фатальны и не восстанавливаются внутри запуска.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Config == nil {
		cfg.Config = DefaultConfig()
	}
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg: cfg.Config,
		orchestrator: NewOrchestrator(OrchestratorConfig{
			Providers:   cfg.Providers,
			Ledger:      cfg.Ledger,
			Reliability: cfg.Reliability,
			Config:      cfg.Config,
			Logger:      logger,
			Sink:        cfg.Sink,
		}),
		normalizer:  NewNormalizer(logger, cfg.Sink),
		hints:       cfg.Hints,
		connections: cfg.Connections,
		logger:      logger,
		sink:        cfg.Sink,
	}, nil
}

// ProvidersAvailable сообщает, способен ли движок обратиться хотя бы
// к одному провайдеру поиска.
func (e *Engine) ProvidersAvailable() bool {
	return e.orchestrator.AnyProviderAvailable()
}

// Resolve выполняет один запуск резолюции: синхронно для вызывающего,
// внутренне параллельно по провайдерам. Всегда возвращает корректно
// сформированный результат; ошибкой завершается только невалидная
// конфигурация или критерии — до любых обращений к провайдерам.
func (e *Engine) Resolve(ctx context.Context, criteria types.SearchCriteria) (*types.ResolutionResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	result := &types.ResolutionResult{
		RunID:     uuid.NewString(),
		Query:     criteria,
		Status:    types.StatusPending,
		StartedAt: time.Now(),
	}

	e.transition(result, types.StatusSearching)
	outcome := e.orchestrator.Dispatch(ctx, criteria)

	e.transition(result, types.StatusScoring)

	variations := GenerateNameVariations(criteria.FirstName, criteria.LastName, e.cfg.PrefixTokens)
	scorer := NewScorer(criteria, variations, e.cfg.Weights)

	var scored []types.ScoredCandidate
	for _, raw := range outcome.Results {
		for _, candidate := range e.normalizer.Normalize(raw) {
			scored = append(scored, scorer.Score(candidate))
		}
	}

	// Подсказки коллаборатора извлечения обрабатываются как выход провайдера
	if e.hints != nil {
		for _, hint := range e.hints.Hints(ctx, criteria) {
			if hint.URL == "" {
				continue
			}
			if hint.CandidateID == "" {
				canonical, err := CanonicalURL(hint.URL)
				if err != nil {
					continue
				}
				hint.URL = canonical
				hint.CandidateID = CandidateID(canonical)
				hint.ExtractedHandle = ExtractHandle(canonical)
			}
			if hint.Source == "" {
				hint.Source = "hints"
			}
			scored = append(scored, scorer.Score(hint))
		}
	}

	deduplicator := NewDeduplicator(e.cfg)
	merged := deduplicator.Deduplicate(scored)

	result.Evidence = e.runEvidence(outcome)
	e.finalize(ctx, result, merged, variations)

	result.FinishedAt = time.Now()
	return result, nil
}

// finalize принимает решение по итогам оценки и завершает машину состояний
func (e *Engine) finalize(ctx context.Context, result *types.ResolutionResult, merged []types.ScoredCandidate, variations NameVariationSet) {
	if len(merged) == 0 {
		result.ConfidenceTier = types.TierLow
		e.transition(result, types.StatusNotFound)
		return
	}

	top := merged[0]
	margin := top.TotalScore
	if len(merged) > 1 {
		margin = top.TotalScore - merged[1].TotalScore
	}

	result.Alternates = merged
	combined := make([]string, 0, len(top.Evidence)+len(result.Evidence))
	combined = append(combined, top.Evidence...)
	combined = append(combined, result.Evidence...)
	result.Evidence = combined
	result.ConfidenceTier = e.confidenceTier(top.TotalScore)

	// Проверка смены имени аннотирует только лучшего кандидата
	// и никогда не меняет ранжирование
	detector := NewNameChangeDetector(result.Query, variations)
	shared := 0
	if e.connections != nil {
		shared = e.connections.SharedConnections(ctx, result.Query, top.Candidate)
	}
	result.NameChange = detector.Assess(top, shared)

	if top.TotalScore >= e.cfg.Thresholds.HighConfidence && margin > e.cfg.Thresholds.ScoreGap {
		result.BestCandidate = &top
		e.transition(result, types.StatusResolved)
		return
	}

	e.transition(result, types.StatusAmbiguous)
}

// confidenceTier переводит итоговую оценку в ярус уверенности
func (e *Engine) confidenceTier(score float64) types.ConfidenceTier {
	confidence := score / e.cfg.Thresholds.ConfidenceScale
	if confidence > 1.0 {
		confidence = 1.0
	}
	switch {
	case confidence >= e.cfg.Thresholds.TierHigh:
		return types.TierHigh
	case confidence >= e.cfg.Thresholds.TierMedium:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

// runEvidence строит свидетельства неполноты данных запуска
func (e *Engine) runEvidence(outcome *DispatchOutcome) []string {
	var evidence []string
	for _, name := range outcome.Skipped {
		evidence = append(evidence, fmt.Sprintf("Evidence incomplete: provider %s skipped", name))
	}
	for _, name := range outcome.TimedOut {
		evidence = append(evidence, fmt.Sprintf("Evidence incomplete: provider %s timed out", name))
	}
	failed := make([]string, 0, len(outcome.Failed))
	for name := range outcome.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		evidence = append(evidence, fmt.Sprintf("Evidence incomplete: provider %s failed: %s", name, outcome.Failed[name]))
	}
	return evidence
}

// transition переводит машину состояний и испускает событие state_transition
func (e *Engine) transition(result *types.ResolutionResult, next types.RunStatus) {
	prev := result.Status
	result.Status = next
	e.logger.Info("переход состояния запуска",
		"run_id", result.RunID, "from", string(prev), "to", string(next))
	if e.sink != nil {
		e.sink(types.Event{
			Type:   types.EventStateTransition,
			Detail: string(prev) + "->" + string(next),
			At:     time.Now(),
		})
	}
}
