package provider

import (
	"sync"
	"time"
)

// Metrics tracks per-provider outcomes so the orchestrator and the API can
// report provider health.
type Metrics struct {
	mu            sync.RWMutex
	providerStats map[string]*ProviderStats
}

// NewMetrics creates a new provider metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		providerStats: make(map[string]*ProviderStats),
	}
}

// RecordSuccess records a successful conversion
func (m *Metrics) RecordSuccess(provider string, latencyMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.getOrCreateStats(provider)
	stats.TotalRequests++
	stats.SuccessfulRequests++
	stats.LastUsed = time.Now().Unix()
	stats.IsHealthy = true

	// Weighted average favoring recent results
	if stats.AverageLatencyMs == 0 {
		stats.AverageLatencyMs = float64(latencyMs)
	} else {
		stats.AverageLatencyMs = (stats.AverageLatencyMs * 0.8) + (float64(latencyMs) * 0.2)
	}

	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)
}

// RecordFailure records a failed conversion
func (m *Metrics) RecordFailure(provider string, errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.getOrCreateStats(provider)
	stats.TotalRequests++
	stats.FailedRequests++
	stats.LastUsed = time.Now().Unix()

	if stats.ErrorBreakdown == nil {
		stats.ErrorBreakdown = make(map[string]int64)
	}
	stats.ErrorBreakdown[errorType]++

	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)

	// Mark as unhealthy if failure rate is too high
	if stats.TotalRequests >= 10 && stats.SuccessRate < 0.5 {
		stats.IsHealthy = false
	}
}

// GetProviderStats returns a copy of the stats for a provider.
func (m *Metrics) GetProviderStats(provider string) ProviderStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.getOrCreateStats(provider)

	cp := *stats
	cp.ErrorBreakdown = make(map[string]int64, len(stats.ErrorBreakdown))
	for k, v := range stats.ErrorBreakdown {
		cp.ErrorBreakdown[k] = v
	}
	return cp
}

// AllStats returns a snapshot of every provider's stats.
func (m *Metrics) AllStats() map[string]ProviderStats {
	m.mu.RLock()
	names := make([]string, 0, len(m.providerStats))
	for name := range m.providerStats {
		names = append(names, name)
	}
	m.mu.RUnlock()

	out := make(map[string]ProviderStats, len(names))
	for _, name := range names {
		out[name] = m.GetProviderStats(name)
	}
	return out
}

func (m *Metrics) getOrCreateStats(provider string) *ProviderStats {
	stats, exists := m.providerStats[provider]
	if !exists {
		stats = &ProviderStats{Provider: provider, IsHealthy: true}
		m.providerStats[provider] = stats
	}
	return stats
}
