// Package vectorstore 实现基于 JSON 文件的追加式向量存储。
//
// 存储工件记录生成向量的模型与维度，加载时据此校验，
// 避免不同维度的向量被静默混用。
package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/internal/pkg/textutil"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// Record 是存储中的一条向量记录。
type Record struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
	Index     int       `json:"index"`
}

// SearchResult 是相似度检索的单条结果。
type SearchResult struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
}

// artifact 是持久化文件的顶层结构。
type artifact struct {
	Embedder  string   `json:"embedder"`
	Dimension int      `json:"dimension"`
	Chunks    []Record `json:"chunks"`
}

// Store 是内存中的向量存储，支持追加与全量线性扫描检索。
type Store struct {
	mu        sync.RWMutex
	embedder  string
	dimension int
	records   []Record
}

// New 创建一个空的向量存储。embedder 标识生成向量的模型。
func New(embedder string) *Store {
	return &Store{embedder: embedder}
}

// Append 追加一条记录。首条非空向量固定存储维度，
// 之后维度不一致的向量会被拒绝。
func (s *Store) Append(rec Record) error {
	if len(rec.Embedding) == 0 {
		return errors.ErrEmptyInput.WithMessage("embedding 不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(rec.Embedding)
	} else if len(rec.Embedding) != s.dimension {
		return errors.ErrDimensionMismatch.WithMessagef(
			"向量维度 %d 与存储维度 %d 不一致", len(rec.Embedding), s.dimension)
	}

	s.records = append(s.records, rec)
	return nil
}

// Len 返回存储中的记录数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension 返回存储的向量维度，空存储返回 0。
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Embedder 返回生成向量的模型标识。
func (s *Store) Embedder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedder
}

// Search 对查询向量做全量线性扫描，返回相似度最高的 topK 条结果。
// 结果按相似度降序排列，相同分数保持插入顺序。
// 向量缺失或维度不一致的记录不参与检索。
func (s *Store) Search(query []float32, topK int) []SearchResult {
	if len(query) == 0 || topK <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		if len(rec.Embedding) == 0 || len(rec.Embedding) != len(query) {
			continue
		}
		results = append(results, SearchResult{
			Text:   rec.Text,
			Source: rec.Source,
			Index:  rec.Index,
			Score:  textutil.CosineSimilarity(query, rec.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Persist 原子地将存储写入文件：先写临时文件再重命名。
func (s *Store) Persist(path string) error {
	s.mu.RLock()
	art := artifact{
		Embedder:  s.embedder,
		Dimension: s.dimension,
		Chunks:    s.records,
	}
	if art.Chunks == nil {
		art.Chunks = []Record{}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化存储失败: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("重命名存储文件失败: %w", err)
	}
	return nil
}

// Load 从文件加载存储。文件无法读取或内容损坏时返回 ErrStoreCorrupt，
// 维度与工件声明不一致的记录会被丢弃并记录警告。
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrStoreCorrupt.WithCause(err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, errors.ErrStoreCorrupt.WithCause(err)
	}

	s := New(art.Embedder)
	s.dimension = art.Dimension

	dropped := 0
	for _, rec := range art.Chunks {
		if len(rec.Embedding) == 0 {
			dropped++
			continue
		}
		if s.dimension == 0 {
			s.dimension = len(rec.Embedding)
		}
		if len(rec.Embedding) != s.dimension {
			dropped++
			continue
		}
		s.records = append(s.records, rec)
	}

	if dropped > 0 {
		logger.Warnw("存储中存在维度不一致或空向量的记录，已丢弃",
			"path", path,
			"dropped", dropped,
			"kept", len(s.records),
		)
	}

	return s, nil
}
