package resolution

import (
	"sync"
	"time"
)

// QuotaLedger процессный учет квот провайдеров по скользящему окну.
// Единственное разделяемое изменяемое состояние ядра: одновременные запуски
// делают check-and-increment атомарно, без потерянных обновлений.
type QuotaLedger struct {
	mu      sync.Mutex
	quotas  map[string]ProviderQuota
	windows map[string][]time.Time
	now     func() time.Time
}

// NewQuotaLedger создает новый учет квот
func NewQuotaLedger(quotas map[string]ProviderQuota) *QuotaLedger {
	return &QuotaLedger{
		quotas:  quotas,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// TryAcquire атомарно проверяет квоту провайдера и занимает один запрос.
// Возвращает false, когда счетчик в текущем окне достиг потолка.
// Провайдер без настроенной квоты не ограничивается.
func (l *QuotaLedger) TryAcquire(provider string) bool {
	quota, limited := l.quotas[provider]
	if !limited {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := l.prune(provider, quota.Window, now)

	if len(window) >= quota.Requests {
		l.windows[provider] = window
		return false
	}

	l.windows[provider] = append(window, now)
	return true
}

// CanDispatch проверяет квоту без занятия запроса
func (l *QuotaLedger) CanDispatch(provider string) bool {
	quota, limited := l.quotas[provider]
	if !limited {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.prune(provider, quota.Window, l.now())
	l.windows[provider] = window
	return len(window) < quota.Requests
}

// Usage возвращает текущее число запросов провайдера в окне
func (l *QuotaLedger) Usage(provider string) int {
	quota, limited := l.quotas[provider]
	if !limited {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.prune(provider, quota.Window, l.now())
	l.windows[provider] = window
	return len(window)
}

// prune лениво удаляет записи, вышедшие за окно. Вызывается под мьютексом.
func (l *QuotaLedger) prune(provider string, window time.Duration, now time.Time) []time.Time {
	entries := l.windows[provider]
	cutoff := now.Add(-window)

	i := 0
	for ; i < len(entries); i++ {
		if entries[i].After(cutoff) {
			break
		}
	}
	return entries[i:]
}
