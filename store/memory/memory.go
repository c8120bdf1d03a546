// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/store"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	forecasts  map[forecastKey]store.ForecastRecord
	deliveries []engine.DeliveryEvent
	products   map[string]engine.ProductMeta
	runs       []store.AnalysisRun
}

// forecastKey mirrors the sqlite upsert identity.
type forecastKey struct {
	Site          string
	ClientCode    string
	ProductCode   string
	TargetWeek    string
	ReferenceWeek string
}

func New() *Memory {
	return &Memory{
		forecasts: make(map[forecastKey]store.ForecastRecord),
		products:  make(map[string]engine.ProductMeta),
	}
}

var _ store.Store = (*Memory)(nil)

func (m *Memory) SaveForecasts(_ context.Context, records []store.ForecastRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		key := forecastKey{
			Site:          r.Site,
			ClientCode:    r.ClientCode,
			ProductCode:   r.ProductCode,
			TargetWeek:    r.TargetWeek,
			ReferenceWeek: r.ReferenceWeek,
		}
		m.forecasts[key] = r
	}
	return len(records), nil
}

func (m *Memory) SaveDeliveries(_ context.Context, events []engine.DeliveryEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, events...)
	return len(events), nil
}

func (m *Memory) PutProductMeta(_ context.Context, meta engine.ProductMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[meta.ProductCode] = meta
	return nil
}

func (m *Memory) ListForecasts(_ context.Context) ([]engine.ForecastLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines := make([]engine.ForecastLine, 0, len(m.forecasts))
	for _, r := range m.forecasts {
		lines = append(lines, r.ForecastLine)
	}
	return lines, nil
}

func (m *Memory) ListDeliveries(_ context.Context) ([]engine.DeliveryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.DeliveryEvent, len(m.deliveries))
	copy(out, m.deliveries)
	return out, nil
}

func (m *Memory) ListProductMeta(_ context.Context) (map[string]engine.ProductMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]engine.ProductMeta, len(m.products))
	for code, meta := range m.products {
		out[code] = meta
	}
	return out, nil
}

func (m *Memory) ListReferenceWeeks(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var weeks []string
	for key := range m.forecasts {
		if _, ok := seen[key.ReferenceWeek]; !ok {
			seen[key.ReferenceWeek] = struct{}{}
			weeks = append(weeks, key.ReferenceWeek)
		}
	}
	engine.SortWeeks(weeks)
	return weeks, nil
}

func (m *Memory) RecordAnalysisRun(_ context.Context, run store.AnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListAnalysisRuns(_ context.Context, limit int) ([]store.AnalysisRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.AnalysisRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
