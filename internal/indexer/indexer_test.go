package indexer_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/finadvisor/internal/indexer"
	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
)

// fakeEmbedder 返回固定维度的向量，包含指定子串的分块返回错误。
type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		emb, err := f.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("embedding unavailable")
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func TestJobRun(t *testing.T) {
	docs := t.TempDir()
	storePath := filepath.Join(t.TempDir(), "embeddings.json")

	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.txt"),
		[]byte("aaaabbbbcccc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.md"),
		[]byte("dd"), 0o644))
	// 空文档应被跳过
	require.NoError(t, os.WriteFile(filepath.Join(docs, "empty.txt"),
		[]byte("   \n"), 0o644))
	// 不支持的格式不参与遍历
	require.NoError(t, os.WriteFile(filepath.Join(docs, "data.csv"),
		[]byte("x,y"), 0o644))

	job, err := indexer.New(indexer.Config{
		DocsDir:     docs,
		StorePath:   storePath,
		ChunkSize:   4,
		Concurrency: 2,
		Embedder:    &fakeEmbedder{},
		EmbedModel:  "fake-model",
	})
	require.NoError(t, err)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)

	// a.txt 分 3 块，b.md 分 1 块
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 1, summary.SkippedDocuments)
	assert.Equal(t, 4, summary.Chunks)
	assert.Equal(t, 0, summary.FailedChunks)
	assert.Equal(t, 3, summary.Dimension)

	store, err := vectorstore.Load(storePath)
	require.NoError(t, err)
	assert.Equal(t, "fake-model", store.Embedder())
	assert.Equal(t, 4, store.Len())
}

func TestJobRunChunkFailureContinues(t *testing.T) {
	docs := t.TempDir()
	storePath := filepath.Join(t.TempDir(), "embeddings.json")

	// 5 个分块，其中 1 个分块嵌入失败
	require.NoError(t, os.WriteFile(filepath.Join(docs, "doc.txt"),
		[]byte("aaaabbbbXXXXccccdddd"), 0o644))

	job, err := indexer.New(indexer.Config{
		DocsDir:     docs,
		StorePath:   storePath,
		ChunkSize:   4,
		Concurrency: 2,
		Embedder:    &fakeEmbedder{failOn: "XXXX"},
		EmbedModel:  "fake-model",
	})
	require.NoError(t, err)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)

	// 失败的分块被跳过，作业继续完成
	assert.Equal(t, 1, summary.Documents)
	assert.Equal(t, 4, summary.Chunks)
	assert.Equal(t, 1, summary.FailedChunks)

	store, err := vectorstore.Load(storePath)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())
}

func TestJobRunUnreadableDocSkipped(t *testing.T) {
	docs := t.TempDir()
	storePath := filepath.Join(t.TempDir(), "embeddings.json")

	// 损坏的 PDF 文件无法解析，应被跳过
	require.NoError(t, os.WriteFile(filepath.Join(docs, "broken.pdf"),
		[]byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "ok.txt"),
		[]byte("good content"), 0o644))

	job, err := indexer.New(indexer.Config{
		DocsDir:    docs,
		StorePath:  storePath,
		ChunkSize:  100,
		Embedder:   &fakeEmbedder{},
		EmbedModel: "fake-model",
	})
	require.NoError(t, err)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Documents)
	assert.Equal(t, 1, summary.SkippedDocuments)
	assert.Equal(t, 1, summary.Chunks)
}

func TestNewValidation(t *testing.T) {
	_, err := indexer.New(indexer.Config{ChunkSize: 100})
	assert.Error(t, err)

	_, err = indexer.New(indexer.Config{Embedder: &fakeEmbedder{}, ChunkSize: 0})
	assert.Error(t, err)
}
