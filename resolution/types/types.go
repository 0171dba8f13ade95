package types

import (
	"context"
	"strings"
	"time"
)

// SearchCriteria критерии поиска профиля человека.
// Неизменяемые входные данные одного запуска резолюции.
type SearchCriteria struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Company             string `json:"company,omitempty"`
	RoleHint            string `json:"role_hint,omitempty"`
	ExpectedNetworkSize int    `json:"expected_network_size,omitempty"`
}

// Validate проверяет инвариант критериев: имя и фамилия не пустые после обрезки пробелов
func (c SearchCriteria) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return &ConfigurationError{Field: "first_name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.LastName) == "" {
		return &ConfigurationError{Field: "last_name", Reason: "must not be empty"}
	}
	return nil
}

// FullName возвращает полное имя "Имя Фамилия"
func (c SearchCriteria) FullName() string {
	return strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName)
}

// RawResult сырой результат от провайдера поиска.
// Payload имеет произвольную форму (одиночный объект, список или контейнер с ключом)
// и живет только до нормализации.
type RawResult struct {
	SourceID  string      `json:"source_id"`
	Payload   interface{} `json:"payload"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Candidate каноническая единица свидетельства: одна возможная ссылка на профиль.
// Кандидаты неизменяемы после создания.
type Candidate struct {
	CandidateID     string     `json:"candidate_id"`
	Source          string     `json:"source"`
	URL             string     `json:"url"`
	ExtractedHandle string     `json:"extracted_handle"`
	DisplayName     string     `json:"display_name,omitempty"`
	Title           string     `json:"title,omitempty"`
	CompanyMention  string     `json:"company_mention,omitempty"`
	ContextSnippet  string     `json:"context_snippet,omitempty"`
	ContentDate     *time.Time `json:"content_date,omitempty"`
}

// ScoreBreakdown разбивка оценки кандидата по факторам.
// Каждый вклад ограничен сверху своим весом и неотрицателен.
type ScoreBreakdown struct {
	NameInURL      float64 `json:"name_in_url"`
	NameInContext  float64 `json:"name_in_context"`
	CompanyMatch   float64 `json:"company_match"`
	HandlePattern  float64 `json:"handle_pattern"`
	TitleRelevance float64 `json:"title_relevance"`
	Freshness      float64 `json:"freshness"`
}

// Total возвращает сумму всех вкладов
func (b ScoreBreakdown) Total() float64 {
	return b.NameInURL + b.NameInContext + b.CompanyMatch +
		b.HandlePattern + b.TitleRelevance + b.Freshness
}

// ScoredCandidate кандидат с оценкой соответствия критериям.
// Sources заполняется дедупликатором: все провайдеры, подтвердившие кандидата.
type ScoredCandidate struct {
	Candidate  Candidate      `json:"candidate"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	TotalScore float64        `json:"total_score"`
	Evidence   []string       `json:"evidence,omitempty"`
	Sources    []string       `json:"sources,omitempty"`
}

// RunStatus состояние машины состояний одного запуска резолюции
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusSearching RunStatus = "searching"
	StatusScoring   RunStatus = "scoring"
	StatusResolved  RunStatus = "resolved"
	StatusAmbiguous RunStatus = "ambiguous"
	StatusNotFound  RunStatus = "not_found"
)

// Terminal сообщает, является ли состояние терминальным
func (s RunStatus) Terminal() bool {
	return s == StatusResolved || s == StatusAmbiguous || s == StatusNotFound
}

// ConfidenceTier ярус уверенности итоговой резолюции
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// NameChangeAssessment вспомогательная оценка непрерывности идентичности (смена имени).
// Не влияет на ранжирование, только аннотирует выбранного кандидата.
type NameChangeAssessment struct {
	OriginalName string   `json:"original_name"`
	CurrentName  string   `json:"current_name,omitempty"`
	Confidence   float64  `json:"confidence"`
	Evidence     []string `json:"evidence,omitempty"`
}

// ResolutionResult итог одного запуска резолюции.
// Создается один раз и не мутируется после финализации.
type ResolutionResult struct {
	RunID          string                `json:"run_id"`
	Query          SearchCriteria        `json:"query"`
	BestCandidate  *ScoredCandidate      `json:"best_candidate,omitempty"`
	ConfidenceTier ConfidenceTier        `json:"confidence_tier"`
	Alternates     []ScoredCandidate     `json:"alternates"`
	Evidence       []string              `json:"evidence"`
	Status         RunStatus             `json:"status"`
	NameChange     *NameChangeAssessment `json:"name_change,omitempty"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
}

// EventType тип события наблюдаемости, испускаемого во время запуска
type EventType string

const (
	EventProviderSkipped  EventType = "provider_skipped"
	EventProviderTimedOut EventType = "provider_timed_out"
	EventAnomalousPayload EventType = "anomalous_payload"
	EventStateTransition  EventType = "state_transition"
)

// Event структурированное событие одного запуска
type Event struct {
	Type     EventType `json:"type"`
	Provider string    `json:"provider,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// EventSink приемник событий запуска. Может быть nil — события тогда только логируются.
type EventSink func(Event)

// SearchProviderInterface интерфейс провайдера поиска.
// Определен здесь, чтобы избежать циклических импортов.
// Адаптеры не повторяют запросы сами — политика ретраев централизована в оркестраторе.
type SearchProviderInterface interface {
	// Search выполняет поиск по критериям и возвращает сырые результаты
	Search(ctx context.Context, criteria SearchCriteria) ([]RawResult, error)

	// GetName возвращает имя провайдера
	GetName() string

	// IsAvailable проверяет доступность провайдера
	IsAvailable() bool

	// GetRateLimit возвращает минимальный интервал между запросами
	GetRateLimit() time.Duration
}
