// Package indexer 实现全量重建文档索引的批处理作业。
//
// 单个文档或分块失败只会跳过并告警，作业本身继续执行，
// 最终一次性持久化全部成功的记录。
package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/finadvisor/internal/pkg/extract"
	"github.com/kart-io/finadvisor/internal/pkg/textutil"
	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
	"github.com/kart-io/finadvisor/pkg/llm"
)

// Config 是索引作业的配置。
type Config struct {
	// DocsDir 待索引的文档目录。
	DocsDir string
	// StorePath 持久化工件路径。
	StorePath string
	// ChunkSize 分块大小（Unicode 字符数）。
	ChunkSize int
	// Concurrency 并发嵌入的 worker 数。
	Concurrency int
	// Embedder 生成向量的嵌入服务。
	Embedder llm.EmbeddingProvider
	// EmbedModel 写入工件的模型标识。
	EmbedModel string
}

// Summary 汇总一次索引作业的结果。
type Summary struct {
	Documents        int `json:"documents"`
	SkippedDocuments int `json:"skipped_documents"`
	Chunks           int `json:"chunks"`
	FailedChunks     int `json:"failed_chunks"`
	Dimension        int `json:"dimension"`
}

// Job 是一次全量重建索引作业。
type Job struct {
	cfg  Config
	pool *ants.Pool
}

// New 创建索引作业并校验配置。
func New(cfg Config) (*Job, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("indexer: 缺少嵌入服务")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("indexer: chunk size 必须为正数")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	pool, err := ants.NewPool(cfg.Concurrency, ants.WithPanicHandler(func(p interface{}) {
		logger.Errorw("索引 worker panic", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("创建 worker 池失败: %w", err)
	}

	return &Job{cfg: cfg, pool: pool}, nil
}

// Run 执行全量重建：遍历文档、分块、嵌入并一次性持久化。
// 返回作业汇总；只有存储持久化失败才会返回错误。
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	defer j.pool.Release()

	files, err := extract.FindDocuments(j.cfg.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("遍历文档目录失败: %w", err)
	}

	store := vectorstore.New(j.cfg.EmbedModel)
	summary := &Summary{}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := extract.Text(path)
		if err != nil {
			logger.Warnw("文档读取失败，跳过", "path", path, "error", err)
			summary.SkippedDocuments++
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Warnw("文档内容为空，跳过", "path", path)
			summary.SkippedDocuments++
			continue
		}

		chunks := textutil.SplitIntoChunks(text, j.cfg.ChunkSize)
		embeddings, failed := j.embedChunks(ctx, path, chunks)

		source := filepath.Base(path)
		for i, emb := range embeddings {
			if emb == nil {
				continue
			}
			if err := store.Append(vectorstore.Record{
				Text:      chunks[i],
				Embedding: emb,
				Source:    source,
				Index:     i,
			}); err != nil {
				logger.Warnw("记录写入失败，跳过", "source", source, "index", i, "error", err)
				failed++
				continue
			}
			summary.Chunks++
		}
		summary.FailedChunks += failed
		summary.Documents++

		logger.Debugw("文档已索引",
			"source", source,
			"content_hash", textutil.HashString(text),
			"chunks", len(chunks),
		)
	}

	summary.Dimension = store.Dimension()

	if err := store.Persist(j.cfg.StorePath); err != nil {
		return nil, fmt.Errorf("持久化存储失败: %w", err)
	}

	logger.Infow("索引作业完成",
		"documents", summary.Documents,
		"skipped_documents", summary.SkippedDocuments,
		"chunks", summary.Chunks,
		"failed_chunks", summary.FailedChunks,
		"dimension", summary.Dimension,
		"store", j.cfg.StorePath,
	)

	return summary, nil
}

// embedChunks 并发嵌入单个文档的全部分块。
// 返回与 chunks 对齐的向量切片，失败的分块为 nil。
func (j *Job) embedChunks(ctx context.Context, path string, chunks []string) ([][]float32, int) {
	embeddings := make([][]float32, len(chunks))
	var failed int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		i, chunk := i, chunk
		wg.Add(1)
		if err := j.pool.Submit(func() {
			defer wg.Done()
			emb, err := j.cfg.Embedder.EmbedSingle(ctx, chunk)
			if err != nil {
				logger.Warnw("分块嵌入失败，跳过",
					"path", path,
					"index", i,
					"chunk", textutil.TruncateString(chunk, 32),
					"error", err,
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			embeddings[i] = emb
			mu.Unlock()
		}); err != nil {
			wg.Done()
			logger.Warnw("分块任务提交失败，跳过", "path", path, "index", i, "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
		}
	}

	wg.Wait()
	return embeddings, failed
}
