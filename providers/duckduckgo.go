package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/solvire/fartemis/resolution/types"
)

// DuckDuckGoProvider провайдер для DuckDuckGo Instant Answer API
type DuckDuckGoProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	rateLimit  time.Duration
	available  atomic.Bool
}

// NewDuckDuckGoProvider создает новый провайдер DuckDuckGo
func NewDuckDuckGoProvider(timeout time.Duration, rateLimit time.Duration) *DuckDuckGoProvider {
	p := &DuckDuckGoProvider{
		baseURL: "https://api.duckduckgo.com",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:   rate.NewLimiter(rate.Every(rateLimit), 1),
		rateLimit: rateLimit,
	}
	p.available.Store(true)
	return p
}

// GetName возвращает имя провайдера
func (d *DuckDuckGoProvider) GetName() string {
	return "duckduckgo"
}

// IsAvailable проверяет доступность провайдера
func (d *DuckDuckGoProvider) IsAvailable() bool {
	return d.available.Load()
}

// GetRateLimit возвращает лимит запросов
func (d *DuckDuckGoProvider) GetRateLimit() time.Duration {
	return d.rateLimit
}

// duckDuckGoResponse структура ответа DuckDuckGo API
type duckDuckGoResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		FirstURL string `json:"FirstURL"`
		Text     string `json:"Text"`
	} `json:"RelatedTopics"`
	Results []struct {
		FirstURL string `json:"FirstURL"`
		Text     string `json:"Text"`
	} `json:"Results"`
}

// Search выполняет поиск через DuckDuckGo API.
// Полезная нагрузка результата — список объектов, по записи на найденную ссылку.
func (d *DuckDuckGoProvider) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.RawResult, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, types.NewTimeoutError(d.GetName(), err)
	}

	params := url.Values{}
	params.Add("q", BuildQuery(criteria))
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/?%s", d.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, types.NewUnavailableError(d.GetName(), err)
	}
	req.Header.Set("User-Agent", "fartemis/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.available.Store(false)
		return nil, classifyTransportError(d.GetName(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRateLimitedError(d.GetName(), fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusServiceUnavailable:
		d.available.Store(false)
		return nil, types.NewUnavailableError(d.GetName(), fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, types.NewUnavailableError(d.GetName(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Status))
	}

	var ddg duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, types.NewUnparseableError(d.GetName(), err)
	}

	d.available.Store(true)
	return []types.RawResult{{
		SourceID:  d.GetName(),
		Payload:   d.transformResults(&ddg),
		FetchedAt: time.Now(),
	}}, nil
}

// transformResults собирает полезную нагрузку из ответа API
func (d *DuckDuckGoProvider) transformResults(resp *duckDuckGoResponse) []interface{} {
	items := make([]interface{}, 0)

	if resp.AbstractURL != "" {
		items = append(items, map[string]interface{}{
			"url":     resp.AbstractURL,
			"title":   resp.Heading,
			"snippet": resp.AbstractText,
		})
	}

	for _, topic := range resp.RelatedTopics {
		if topic.FirstURL != "" {
			items = append(items, map[string]interface{}{
				"first_url": topic.FirstURL,
				"text":      topic.Text,
			})
		}
	}

	for _, result := range resp.Results {
		if result.FirstURL != "" {
			items = append(items, map[string]interface{}{
				"first_url": result.FirstURL,
				"text":      result.Text,
			})
		}
	}

	return items
}
