package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/solvire/fartemis/resolution/types"
)

// HTMLSearchProvider провайдер HTML-поиска DuckDuckGo. Парсит страницу
// результатов и извлекает ссылки со сниппетами; запасной вариант,
// когда API-провайдеры исчерпаны или недоступны.
type HTMLSearchProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	rateLimit  time.Duration
	available  atomic.Bool
}

// NewHTMLSearchProvider создает новый HTML-провайдер
func NewHTMLSearchProvider(timeout time.Duration, rateLimit time.Duration) *HTMLSearchProvider {
	p := &HTMLSearchProvider{
		baseURL: "https://html.duckduckgo.com/html/",
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
func (h *HTMLSearchProvider) GetName() string {
	return "duckduckgo-html"
}

// IsAvailable проверяет доступность провайдера
func (h *HTMLSearchProvider) IsAvailable() bool {
	return h.available.Load()
}

// GetRateLimit возвращает лимит запросов
func (h *HTMLSearchProvider) GetRateLimit() time.Duration {
	return h.rateLimit
}

// Search выполняет HTML-поиск. Полезная нагрузка — список объектов,
// по записи на результат страницы.
func (h *HTMLSearchProvider) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.RawResult, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, types.NewTimeoutError(h.GetName(), err)
	}

	searchURL := fmt.Sprintf("%s?q=%s", h.baseURL, url.QueryEscape(BuildQuery(criteria)))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, types.NewUnavailableError(h.GetName(), err)
	}
	// Заголовки для имитации браузера
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.available.Store(false)
		return nil, classifyTransportError(h.GetName(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRateLimitedError(h.GetName(), fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, types.NewUnavailableError(h.GetName(), fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, types.NewUnparseableError(h.GetName(), err)
	}

	h.available.Store(true)
	return []types.RawResult{{
		SourceID:  h.GetName(),
		Payload:   h.extractResults(doc),
		FetchedAt: time.Now(),
	}}, nil
}

// extractResults извлекает результаты поиска из HTML-документа
func (h *HTMLSearchProvider) extractResults(doc *goquery.Document) []interface{} {
	items := make([]interface{}, 0)

	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		href = unwrapRedirect(href)
		if href == "" {
			return
		}

		items = append(items, map[string]interface{}{
			"url":     href,
			"title":   strings.TrimSpace(link.Text()),
			"snippet": strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
	})

	return items
}

// unwrapRedirect извлекает конечный URL из редиректа DuckDuckGo
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	if !strings.Contains(href, "duckduckgo.com/l/") && !strings.HasPrefix(href, "/l/") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if decoded, err := url.QueryUnescape(uddg); err == nil {
			return decoded
		}
	}
	return href
}
