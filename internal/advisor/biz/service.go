// Package biz 实现问答与模拟交易的业务逻辑。
package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/internal/advisor/metrics"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// SourceRef 标识回答引用的分块来源。
type SourceRef struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
}

// AskResult 是一次问答的结果。
type AskResult struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources,omitempty"`
	Cached  bool        `json:"cached,omitempty"`
}

// Service 问答服务接口。
type Service interface {
	// Ask 回答一个问题。问题为空返回 ErrEmptyQuestion，
	// 上游模型服务失败返回 ErrProvider。
	Ask(ctx context.Context, question string) (*AskResult, error)

	// Stats 返回知识库与服务运行统计。
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// ServiceConfig 问答服务配置。
type ServiceConfig struct {
	RetrieverConfig  *RetrieverConfig
	GeneratorConfig  *GeneratorConfig
	QueryCacheConfig *QueryCacheConfig
}

type advisorService struct {
	retriever *Retriever
	generator *Generator
	cache     *QueryCache
	store     StoreProvider
}

// NewAdvisorService 创建问答服务实例。cache 可以为 nil（缓存未启用）。
func NewAdvisorService(retriever *Retriever, generator *Generator, cache *QueryCache, store StoreProvider) Service {
	return &advisorService{
		retriever: retriever,
		generator: generator,
		cache:     cache,
		store:     store,
	}
}

func (s *advisorService) Ask(ctx context.Context, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrEmptyQuestion
	}

	// 缓存命中直接返回，不触碰任何上游服务
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, question); err == nil && cached != nil {
			cached.Cached = true
			metrics.GetAdvisorMetrics().RecordQuery(true, nil)
			return cached, nil
		}
	}

	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		metrics.GetAdvisorMetrics().RecordQuery(false, err)
		return nil, err
	}

	chunks := make([]string, 0, len(results))
	sources := make([]SourceRef, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Text)
		sources = append(sources, SourceRef{Source: r.Source, Index: r.Index, Score: r.Score})
	}

	answer, err := s.generator.Generate(ctx, question, chunks)
	if err != nil {
		metrics.GetAdvisorMetrics().RecordQuery(false, err)
		return nil, err
	}

	result := &AskResult{Answer: answer, Sources: sources}
	metrics.GetAdvisorMetrics().RecordQuery(false, nil)

	if s.cache != nil {
		if err := s.cache.Set(ctx, question, result); err != nil {
			logger.Warnw("缓存写入失败", "error", err)
		}
	}

	return result, nil
}

func (s *advisorService) Stats(ctx context.Context) (map[string]interface{}, error) {
	snapshot := s.store.Snapshot()
	stats := map[string]interface{}{
		"store": map[string]interface{}{
			"records":   snapshot.Len(),
			"dimension": snapshot.Dimension(),
			"embedder":  snapshot.Embedder(),
		},
		"metrics": metrics.GetAdvisorMetrics().Stats(),
	}

	if s.cache != nil {
		cacheStats, err := s.cache.GetStats(ctx)
		if err != nil {
			logger.Warnw("缓存统计获取失败", "error", err)
		} else {
			stats["cache"] = cacheStats
		}
	}

	return stats, nil
}
