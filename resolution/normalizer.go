package resolution

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

// Normalizer приводит произвольно устроенные ответы провайдеров к каноническим кандидатам.
// Нормализация никогда не возвращает ошибку вызывающему: нераспознанная форма
// дает ноль кандидатов и событие anomalous_payload.
type Normalizer struct {
	logger *slog.Logger
	sink   types.EventSink
}

// NewNormalizer создает новый нормализатор
func NewNormalizer(logger *slog.Logger, sink types.EventSink) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, sink: sink}
}

// Normalize превращает один сырой результат в кандидатов.
// Поддерживаются три формы payload: одиночный объект, список объектов
// и контейнер с ключом results.
func (n *Normalizer) Normalize(raw types.RawResult) []types.Candidate {
	items := n.extractItems(raw)
	if items == nil {
		n.anomaly(raw, "unrecognized payload shape")
		return nil
	}

	candidates := make([]types.Candidate, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			n.anomaly(raw, fmt.Sprintf("payload item has unexpected type %T", item))
			continue
		}
		if c := n.normalizeItem(raw.SourceID, obj); c != nil {
			candidates = append(candidates, *c)
		}
	}

	return candidates
}

// extractItems распознает форму payload и возвращает список элементов.
// nil означает нераспознанную форму.
func (n *Normalizer) extractItems(raw types.RawResult) []interface{} {
	switch payload := raw.Payload.(type) {
	case []interface{}:
		// Список объектов
		return payload
	case map[string]interface{}:
		// Контейнер с ключом results
		if inner, ok := payload["results"]; ok {
			if list, ok := inner.([]interface{}); ok {
				return list
			}
			return nil
		}
		// Одиночный объект
		return []interface{}{payload}
	case nil:
		return []interface{}{}
	default:
		return nil
	}
}

// normalizeItem превращает один объект payload в кандидата.
// Объект без пригодного URL кандидата не дает.
func (n *Normalizer) normalizeItem(source string, obj map[string]interface{}) *types.Candidate {
	rawURL := stringField(obj, "url", "link", "first_url", "href")
	if rawURL == "" {
		return nil
	}

	canonical, err := CanonicalURL(rawURL)
	if err != nil {
		n.logger.Debug("пропущен кандидат с неразборчивым URL",
			"source", source, "url", rawURL, "error", err)
		return nil
	}

	c := &types.Candidate{
		CandidateID:     CandidateID(canonical),
		Source:          source,
		URL:             canonical,
		ExtractedHandle: ExtractHandle(canonical),
		DisplayName:     stringField(obj, "display_name", "name"),
		Title:           stringField(obj, "title"),
		CompanyMention:  stringField(obj, "company", "company_mention"),
		ContextSnippet:  stringField(obj, "snippet", "content", "text", "description"),
	}

	if dateStr := stringField(obj, "content_date", "published_date", "date"); dateStr != "" {
		if t := parseContentDate(dateStr); t != nil {
			c.ContentDate = t
		}
	}

	return c
}

// anomaly фиксирует аномальный payload: логирует и испускает событие
func (n *Normalizer) anomaly(raw types.RawResult, detail string) {
	n.logger.Warn("аномальный payload провайдера", "source", raw.SourceID, "detail", detail)
	if n.sink != nil {
		n.sink(types.Event{
			Type:     types.EventAnomalousPayload,
			Provider: raw.SourceID,
			Detail:   detail,
			At:       time.Now(),
		})
	}
}

// CanonicalURL канонизирует URL кандидата: схема по умолчанию https,
// хост в нижнем регистре без www., без query и фрагмента, без хвостового слэша.
// Идентичные профили от разных провайдеров сводятся к одному виду.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host")
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := u.EscapedPath()
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/" {
		path = ""
	}

	return u.Scheme + "://" + host + path, nil
}

// CandidateID детерминированно выводит идентификатор кандидата из канонического URL
func CandidateID(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(hash[:])[:16]
}

// ExtractHandle извлекает хэндл: последний непустой сегмент пути канонического URL
func ExtractHandle(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(u.EscapedPath(), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			unescaped, err := url.PathUnescape(segments[i])
			if err != nil {
				return segments[i]
			}
			return unescaped
		}
	}
	return ""
}

// stringField возвращает первое непустое строковое значение из перечисленных ключей
func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// contentDateLayouts поддерживаемые форматы дат в ответах провайдеров
var contentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
}

// parseContentDate разбирает дату контента; нераспознанная дата дает nil, не ошибку
func parseContentDate(s string) *time.Time {
	for _, layout := range contentDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
