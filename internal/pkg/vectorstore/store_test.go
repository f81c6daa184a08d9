package vectorstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
	"github.com/kart-io/finadvisor/pkg/errors"
)

func TestStoreAppendDimension(t *testing.T) {
	s := vectorstore.New("mxbai-embed-large")

	// 首条记录固定维度
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "a", Embedding: []float32{1, 0, 0}, Source: "doc.txt", Index: 0,
	}))
	assert.Equal(t, 3, s.Dimension())

	// 维度一致的记录可以追加
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "b", Embedding: []float32{0, 1, 0}, Source: "doc.txt", Index: 1,
	}))

	// 维度不一致的记录被拒绝
	err := s.Append(vectorstore.Record{Text: "c", Embedding: []float32{1, 2}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDimensionMismatch.Code))

	// 空向量被拒绝
	err = s.Append(vectorstore.Record{Text: "d"})
	require.Error(t, err)

	assert.Equal(t, 2, s.Len())
}

func TestStoreSearch(t *testing.T) {
	s := vectorstore.New("test-model")
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "营收章节", Embedding: []float32{1, 0}, Source: "report.txt", Index: 0,
	}))
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "风险章节", Embedding: []float32{0, 1}, Source: "report.txt", Index: 1,
	}))

	results := s.Search([]float32{0.9, 0.1}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "营收章节", results[0].Text)
	assert.Equal(t, "风险章节", results[1].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestStoreSearchTopK(t *testing.T) {
	s := vectorstore.New("test-model")
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(vectorstore.Record{
			Text: "chunk", Embedding: []float32{1, float32(i)}, Source: "d.txt", Index: i,
		}))
	}

	// topK 大于记录数时返回全部
	assert.Len(t, s.Search([]float32{1, 0}, 10), 3)
	// topK 截断
	assert.Len(t, s.Search([]float32{1, 0}, 2), 2)
	// 非法输入
	assert.Nil(t, s.Search(nil, 5))
	assert.Nil(t, s.Search([]float32{1, 0}, 0))
}

func TestStoreSearchTieBreakInsertionOrder(t *testing.T) {
	s := vectorstore.New("test-model")
	// 两条记录与查询向量的相似度完全相同
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "first", Embedding: []float32{1, 0}, Index: 0,
	}))
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "second", Embedding: []float32{2, 0}, Index: 1,
	}))

	results := s.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "second", results[1].Text)
}

func TestStoreSearchZeroNorm(t *testing.T) {
	s := vectorstore.New("test-model")
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "normal", Embedding: []float32{1, 1}, Index: 0,
	}))

	// 零向量查询的分数为 0，而不是 NaN
	results := s.Search([]float32{0, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestStorePersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")

	s := vectorstore.New("mxbai-embed-large")
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "第一段", Embedding: []float32{0.5, -0.25, 1}, Source: "a.txt", Index: 0,
	}))
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "第二段", Embedding: []float32{1, 2, 3}, Source: "a.txt", Index: 1,
	}))
	require.NoError(t, s.Persist(path))

	loaded, err := vectorstore.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", loaded.Embedder())
	assert.Equal(t, 3, loaded.Dimension())
	assert.Equal(t, 2, loaded.Len())

	// 嵌入向量逐位精确还原
	results := loaded.Search([]float32{0.5, -0.25, 1}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "第一段", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestLoadCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	_, err := vectorstore.Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStoreCorrupt.Code))
}

func TestLoadDropsMismatchedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	content := `{
  "embedder": "mxbai-embed-large",
  "dimension": 3,
  "chunks": [
    {"text": "ok", "embedding": [1, 0, 0], "source": "a.txt", "index": 0},
    {"text": "bad-dim", "embedding": [1, 0], "source": "a.txt", "index": 1},
    {"text": "empty", "embedding": [], "source": "a.txt", "index": 2}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := vectorstore.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	// 维度不一致的记录绝不出现在检索结果中
	results := s.Search([]float32{1, 0, 0}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Text)
}

func TestLoadMissingFile(t *testing.T) {
	// 无法读取与内容损坏同属存储损坏
	_, err := vectorstore.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStoreCorrupt.Code))
}

func TestReloaderSnapshotSwap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")

	s := vectorstore.New("test-model")
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "v1", Embedding: []float32{1, 0}, Index: 0,
	}))
	require.NoError(t, s.Persist(path))

	r, err := vectorstore.NewReloader(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Snapshot().Len())

	// 首次加载失败应返回错误
	_, err = vectorstore.NewReloader(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestReloaderWatchSwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")

	s := vectorstore.New("test-model")
	require.NoError(t, s.Append(vectorstore.Record{
		Text: "v1", Embedding: []float32{1, 0}, Index: 0,
	}))
	require.NoError(t, s.Persist(path))

	r, err := vectorstore.NewReloader(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))

	// 原子重命名写入触发热加载，快照整体替换
	next := vectorstore.New("test-model")
	require.NoError(t, next.Append(vectorstore.Record{
		Text: "v2-a", Embedding: []float32{1, 0}, Index: 0,
	}))
	require.NoError(t, next.Append(vectorstore.Record{
		Text: "v2-b", Embedding: []float32{0, 1}, Index: 1,
	}))
	require.NoError(t, next.Persist(path))

	require.Eventually(t, func() bool {
		return r.Snapshot().Len() == 2
	}, 3*time.Second, 10*time.Millisecond)

	// 损坏的工件不替换快照，旧快照继续服务
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 2, r.Snapshot().Len())
	assert.Equal(t, "test-model", r.Snapshot().Embedder())
}
