package resolution

import (
	"sync"
	"time"
)

// ProviderStats статистика надежности одного провайдера
type ProviderStats struct {
	ProviderName      string     `json:"provider_name"`
	RequestsTotal     int64      `json:"requests_total"`
	RequestsSuccess   int64      `json:"requests_success"`
	RequestsFailed    int64      `json:"requests_failed"`
	FailureRate       float64    `json:"failure_rate"`
	AvgResponseTimeMs int64      `json:"avg_response_time_ms"`
	LastSuccess       *time.Time `json:"last_success,omitempty"`
	LastFailure       *time.Time `json:"last_failure,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ReliabilityTracker потокобезопасный учет надежности провайдеров.
// Живет на уровне процесса и переживает отдельные запуски.
type ReliabilityTracker struct {
	mu    sync.Mutex
	stats map[string]*ProviderStats
}

// NewReliabilityTracker создает новый трекер надежности
func NewReliabilityTracker() *ReliabilityTracker {
	return &ReliabilityTracker{
		stats: make(map[string]*ProviderStats),
	}
}

// RecordSuccess записывает успешный запрос с временем ответа
func (rt *ReliabilityTracker) RecordSuccess(providerName string, responseTime time.Duration) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stats := rt.getOrCreate(providerName)
	stats.RequestsTotal++
	stats.RequestsSuccess++
	now := time.Now()
	stats.LastSuccess = &now
	stats.UpdatedAt = now

	if stats.RequestsSuccess > 0 {
		avgMs := responseTime.Milliseconds()
		stats.AvgResponseTimeMs = (stats.AvgResponseTimeMs*(stats.RequestsSuccess-1) + avgMs) / stats.RequestsSuccess
	}
	stats.FailureRate = float64(stats.RequestsFailed) / float64(stats.RequestsTotal)
}

// RecordFailure записывает неуспешный запрос
func (rt *ReliabilityTracker) RecordFailure(providerName string, err error) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stats := rt.getOrCreate(providerName)
	stats.RequestsTotal++
	stats.RequestsFailed++
	now := time.Now()
	stats.LastFailure = &now
	stats.UpdatedAt = now
	if err != nil {
		stats.LastError = err.Error()
	}
	stats.FailureRate = float64(stats.RequestsFailed) / float64(stats.RequestsTotal)
}

// GetStats возвращает копию статистики провайдера
func (rt *ReliabilityTracker) GetStats(providerName string) ProviderStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return *rt.getOrCreate(providerName)
}

// GetAllStats возвращает копии статистики всех провайдеров
func (rt *ReliabilityTracker) GetAllStats() map[string]ProviderStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	all := make(map[string]ProviderStats, len(rt.stats))
	for name, stats := range rt.stats {
		all[name] = *stats
	}
	return all
}

// getOrCreate возвращает статистику провайдера, создавая при первом обращении.
// Вызывается под мьютексом.
func (rt *ReliabilityTracker) getOrCreate(providerName string) *ProviderStats {
	if stats, exists := rt.stats[providerName]; exists {
		return stats
	}
	stats := &ProviderStats{
		ProviderName: providerName,
		UpdatedAt:    time.Now(),
	}
	rt.stats[providerName] = stats
	return stats
}
