package resolution

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

// Orchestrator раздает запрос всем настроенным провайдерам параллельно,
// соблюдая квоты и общий дедлайн запуска, и собирает объединение сырых результатов.
// Провайдер сверх квоты пропускается, а не ставится в очередь; пропуск — это
// свидетельство неполноты, не ошибка.
type Orchestrator struct {
	providers   map[string]types.SearchProviderInterface
	ledger      *QuotaLedger
	reliability *ReliabilityTracker
	cfg         *Config
	logger      *slog.Logger
	sink        types.EventSink
}

// OrchestratorConfig конфигурация оркестратора
type OrchestratorConfig struct {
	Providers   map[string]types.SearchProviderInterface
	Ledger      *QuotaLedger
	Reliability *ReliabilityTracker
	Config      *Config
	Logger      *slog.Logger
	Sink        types.EventSink
}

// NewOrchestrator создает новый оркестратор
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ledger := cfg.Ledger
	if ledger == nil {
		ledger = NewQuotaLedger(cfg.Config.Quotas)
	}
	reliability := cfg.Reliability
	if reliability == nil {
		reliability = NewReliabilityTracker()
	}
	return &Orchestrator{
		providers:   cfg.Providers,
		ledger:      ledger,
		reliability: reliability,
		cfg:         cfg.Config,
		logger:      logger,
		sink:        cfg.Sink,
	}
}

// AnyProviderAvailable сообщает, есть ли хотя бы один провайдер,
// готовый принять запрос.
func (o *Orchestrator) AnyProviderAvailable() bool {
	for _, name := range o.cfg.ProviderPriority {
		if provider, configured := o.providers[name]; configured && provider.IsAvailable() {
			return true
		}
	}
	return false
}

// DispatchOutcome итог раздачи одного запроса по провайдерам
type DispatchOutcome struct {
	Results  []types.RawResult
	Skipped  []string
	TimedOut []string
	Failed   map[string]string
}

// providerOutcome результат одного провайдера внутри раздачи
type providerOutcome struct {
	results  []types.RawResult
	timedOut bool
	err      error
}

// Dispatch выполняет один параллельный запрос ко всем подходящим провайдерам.
// Возвращается всегда: провайдер, не ответивший в дедлайн, дает ноль результатов
// и помечается timed_out, но запуск не проваливает.
func (o *Orchestrator) Dispatch(ctx context.Context, criteria types.SearchCriteria) *DispatchOutcome {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunDeadline)
	defer cancel()

	outcome := &DispatchOutcome{Failed: make(map[string]string)}
	outcomes := make(map[string]*providerOutcome)
	launched := make(map[string]bool)
	pending := 0

	type namedOutcome struct {
		name string
		out  *providerOutcome
	}
	// Буфер на всех возможных участников: горутина провайдера,
	// ответившего после дедлайна, завершает отправку и не зависает.
	results := make(chan namedOutcome, len(o.cfg.ProviderPriority))

	for _, name := range o.cfg.ProviderPriority {
		provider, configured := o.providers[name]
		if !configured {
			continue
		}

		if !provider.IsAvailable() {
			outcome.Skipped = append(outcome.Skipped, name)
			o.emit(types.EventProviderSkipped, name, "provider reports unavailable")
			continue
		}

		if !o.ledger.TryAcquire(name) {
			outcome.Skipped = append(outcome.Skipped, name)
			o.emit(types.EventProviderSkipped, name, "quota exceeded in current window")
			continue
		}

		pending++
		launched[name] = true
		go func(name string, provider types.SearchProviderInterface) {
			results <- namedOutcome{name: name, out: o.queryProvider(ctx, name, provider, criteria)}
		}(name, provider)
	}

	// Сбор ответов прекращается по дедлайну запуска, даже если провайдер
	// игнорирует ctx: его горутина дольёт ответ в буфер и завершится.
collect:
	for pending > 0 {
		select {
		case no := <-results:
			outcomes[no.name] = no.out
			pending--
		case <-ctx.Done():
			break collect
		}
	}

	// Слияние в порядке приоритета провайдеров, чтобы итог был воспроизводим
	for _, name := range o.cfg.ProviderPriority {
		if !launched[name] {
			continue
		}
		out, ok := outcomes[name]
		if !ok {
			// Запущен, но к дедлайну ответа нет
			outcome.TimedOut = append(outcome.TimedOut, name)
			o.emit(types.EventProviderTimedOut, name, "no response within run deadline")
			continue
		}
		switch {
		case out.timedOut:
			outcome.TimedOut = append(outcome.TimedOut, name)
			o.emit(types.EventProviderTimedOut, name, "no response within run deadline")
		case out.err != nil:
			outcome.Failed[name] = out.err.Error()
		default:
			outcome.Results = append(outcome.Results, out.results...)
		}
	}

	return outcome
}

// queryProvider выполняет запрос к одному провайдеру с централизованными ретраями.
// Повторяется только временная недоступность, ограниченным числом попыток;
// rate_limited внутри запуска не повторяется — квота отложена до следующего запуска.
func (o *Orchestrator) queryProvider(ctx context.Context, name string, provider types.SearchProviderInterface, criteria types.SearchCriteria) *providerOutcome {
	var lastErr error

	for attempt := 0; attempt <= o.cfg.UnavailableRetries; attempt++ {
		if attempt > 0 {
			// Повторная попытка тоже тратит квоту
			if !o.ledger.TryAcquire(name) {
				break
			}
		}

		started := time.Now()
		raws, err := provider.Search(ctx, criteria)
		if err == nil {
			o.reliability.RecordSuccess(name, time.Since(started))
			for i := range raws {
				if raws[i].SourceID == "" {
					raws[i].SourceID = name
				}
			}
			return &providerOutcome{results: raws}
		}

		o.reliability.RecordFailure(name, err)
		lastErr = err

		if errors.Is(err, context.DeadlineExceeded) || types.ErrorKind(err) == types.ErrKindTimeout {
			o.logger.Warn("провайдер не ответил в дедлайн", "provider", name)
			return &providerOutcome{timedOut: true, err: err}
		}

		if types.ErrorKind(err) != types.ErrKindUnavailable {
			break
		}
		o.logger.Warn("провайдер временно недоступен, повтор",
			"provider", name, "attempt", attempt+1, "error", err)
	}

	return &providerOutcome{err: lastErr}
}

// emit испускает событие наблюдаемости и дублирует его в лог
func (o *Orchestrator) emit(eventType types.EventType, provider, detail string) {
	o.logger.Info("событие запуска", "type", string(eventType), "provider", provider, "detail", detail)
	if o.sink != nil {
		o.sink(types.Event{
			Type:     eventType,
			Provider: provider,
			Detail:   detail,
			At:       time.Now(),
		})
	}
}
