package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/solvire/fartemis/resolution/types"
)

// TavilyProvider провайдер для Tavily Search API. Требует API ключ;
// без ключа провайдер считается недоступным и пропускается оркестратором.
type TavilyProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	rateLimit  time.Duration
	available  atomic.Bool
}

// NewTavilyProvider создает новый провайдер Tavily
func NewTavilyProvider(apiKey string, timeout time.Duration, rateLimit time.Duration) *TavilyProvider {
	p := &TavilyProvider{
		baseURL: "https://api.tavily.com",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:   rate.NewLimiter(rate.Every(rateLimit), 1),
		rateLimit: rateLimit,
	}
	p.available.Store(apiKey != "")
	return p
}

// GetName возвращает имя провайдера
func (t *TavilyProvider) GetName() string {
	return "tavily"
}

// IsAvailable проверяет доступность провайдера
func (t *TavilyProvider) IsAvailable() bool {
	return t.available.Load()
}

// GetRateLimit возвращает лимит запросов
func (t *TavilyProvider) GetRateLimit() time.Duration {
	return t.rateLimit
}

// tavilyRequest тело запроса к Tavily Search API
type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Search выполняет поиск через Tavily API.
// Полезная нагрузка результата — контейнер с ключом results, как его
// возвращает API; развертка контейнера — забота нормализатора.
func (t *TavilyProvider) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.RawResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, types.NewTimeoutError(t.GetName(), err)
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       BuildQuery(criteria),
		SearchDepth: "basic",
		MaxResults:  10,
	})
	if err != nil {
		return nil, types.NewUnavailableError(t.GetName(), err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewUnavailableError(t.GetName(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.available.Store(false)
		return nil, classifyTransportError(t.GetName(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRateLimitedError(t.GetName(), fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		t.available.Store(false)
		return nil, types.NewUnavailableError(t.GetName(), fmt.Errorf("invalid api key: status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, types.NewUnavailableError(t.GetName(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Status))
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewUnparseableError(t.GetName(), err)
	}

	t.available.Store(true)
	return []types.RawResult{{
		SourceID:  t.GetName(),
		Payload:   payload,
		FetchedAt: time.Now(),
	}}, nil
}
