// Package metrics 提供问答服务的业务指标收集。
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// AdvisorMetrics 问答服务业务指标。
type AdvisorMetrics struct {
	// 查询指标
	queriesTotal       uint64 // 总查询次数
	queriesCacheHits   uint64 // 缓存命中次数
	queriesCacheMisses uint64 // 缓存未命中次数
	queriesErrors      uint64 // 查询错误次数

	// 检索指标
	retrievalTotal  uint64 // 总检索次数
	retrievalErrors uint64 // 检索错误次数

	// LLM 调用指标
	llmCallsTotal  uint64 // LLM 总调用次数
	llmCallsErrors uint64 // LLM 调用错误次数

	// 模拟交易指标
	tradesTotal  uint64 // 总交易次数
	tradesErrors uint64 // 被拒绝的交易次数

	mu        sync.Mutex
	startTime time.Time
}

var (
	globalMetrics *AdvisorMetrics
	metricsOnce   sync.Once
)

// GetAdvisorMetrics 获取全局指标实例。
func GetAdvisorMetrics() *AdvisorMetrics {
	metricsOnce.Do(func() {
		globalMetrics = &AdvisorMetrics{
			startTime: time.Now(),
		}
	})
	return globalMetrics
}

// RecordQuery 记录查询。
func (m *AdvisorMetrics) RecordQuery(cacheHit bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.queriesCacheHits, 1)
	} else {
		atomic.AddUint64(&m.queriesCacheMisses, 1)
	}
}

// RecordRetrieval 记录检索操作。
func (m *AdvisorMetrics) RecordRetrieval(err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
	}
}

// RecordLLMCall 记录 LLM 调用。
func (m *AdvisorMetrics) RecordLLMCall(err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
	}
}

// RecordTrade 记录模拟交易。
func (m *AdvisorMetrics) RecordTrade(err error) {
	atomic.AddUint64(&m.tradesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.tradesErrors, 1)
	}
}

// Stats 返回当前统计信息（用于 API）。
func (m *AdvisorMetrics) Stats() map[string]interface{} {
	cacheHits := atomic.LoadUint64(&m.queriesCacheHits)
	cacheMisses := atomic.LoadUint64(&m.queriesCacheMisses)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	m.mu.Lock()
	uptime := time.Since(m.startTime).Seconds()
	m.mu.Unlock()

	return map[string]interface{}{
		"queries": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.queriesTotal),
			"cache_hits":     cacheHits,
			"cache_misses":   cacheMisses,
			"cache_hit_rate": cacheHitRate,
			"errors":         atomic.LoadUint64(&m.queriesErrors),
		},
		"retrieval": map[string]interface{}{
			"total":  atomic.LoadUint64(&m.retrievalTotal),
			"errors": atomic.LoadUint64(&m.retrievalErrors),
		},
		"llm": map[string]interface{}{
			"calls_total": atomic.LoadUint64(&m.llmCallsTotal),
			"errors":      atomic.LoadUint64(&m.llmCallsErrors),
		},
		"trading": map[string]interface{}{
			"total":    atomic.LoadUint64(&m.tradesTotal),
			"rejected": atomic.LoadUint64(&m.tradesErrors),
		},
		"uptime_seconds": uptime,
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *AdvisorMetrics) Reset() {
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesCacheHits, 0)
	atomic.StoreUint64(&m.queriesCacheMisses, 0)
	atomic.StoreUint64(&m.queriesErrors, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.tradesTotal, 0)
	atomic.StoreUint64(&m.tradesErrors, 0)

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
