package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/internal/advisor/metrics"
	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
	"github.com/kart-io/finadvisor/pkg/errors"
	"github.com/kart-io/finadvisor/pkg/llm"
)

// StoreProvider 提供存储的当前快照。
// 快照在一次检索期间不变，热加载通过整体替换实现。
type StoreProvider interface {
	Snapshot() *vectorstore.Store
}

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 返回的最大结果数。
	TopK int
}

// Retriever 将问题嵌入为查询向量并对存储做相似度检索。
type Retriever struct {
	store    StoreProvider
	embedder llm.EmbeddingProvider
	config   *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(store StoreProvider, embedder llm.EmbeddingProvider, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = &RetrieverConfig{TopK: 5}
	}
	if config.TopK <= 0 {
		config.TopK = 5
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve 返回与问题最相似的 TopK 条记录。
// 嵌入服务调用失败时返回 ErrProvider。
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]vectorstore.SearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedSingle(ctx, question)
	if err != nil {
		metrics.GetAdvisorMetrics().RecordRetrieval(err)
		logger.Errorw("查询嵌入失败", "provider", r.embedder.Name(), "error", err)
		return nil, errors.ErrProvider.WithCause(err)
	}

	snapshot := r.store.Snapshot()
	results := snapshot.Search(queryEmbedding, r.config.TopK)
	metrics.GetAdvisorMetrics().RecordRetrieval(nil)

	logger.Debugw("检索完成",
		"results", len(results),
		"top_k", r.config.TopK,
		"store_records", snapshot.Len(),
	)
	return results, nil
}
