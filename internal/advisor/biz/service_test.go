package biz_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/finadvisor/internal/advisor/biz"
	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
	"github.com/kart-io/finadvisor/pkg/errors"
	"github.com/kart-io/finadvisor/pkg/llm"
)

// fakeEmbedder 记录调用次数，可配置为固定返回错误。
type fakeEmbedder struct {
	calls     int
	embedding []float32
	err       error
}

func (f *fakeEmbedder) Name() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		emb, err := f.EmbedSingle(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

// fakeChat 记录最近一次收到的 prompt 与 system prompt。
type fakeChat struct {
	calls      int
	lastPrompt string
	lastSystem string
	answer     string
	err        error
}

func (f *fakeChat) Name() string { return "fake-chat" }

func (f *fakeChat) Chat(context.Context, []llm.Message) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeChat) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastSystem = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// staticStore 固定返回同一个存储快照。
type staticStore struct {
	store *vectorstore.Store
}

func (s *staticStore) Snapshot() *vectorstore.Store { return s.store }

func newTestStore(t *testing.T) *vectorstore.Store {
	t.Helper()
	store := vectorstore.New("test-model")
	require.NoError(t, store.Append(vectorstore.Record{
		Text: "营收增长 12%", Embedding: []float32{1, 0}, Source: "report.txt", Index: 0,
	}))
	require.NoError(t, store.Append(vectorstore.Record{
		Text: "负债率下降", Embedding: []float32{0, 1}, Source: "report.txt", Index: 1,
	}))
	return store
}

func newTestService(t *testing.T, embedder *fakeEmbedder, chat *fakeChat) biz.Service {
	t.Helper()
	store := &staticStore{store: newTestStore(t)}
	retriever := biz.NewRetriever(store, embedder, &biz.RetrieverConfig{TopK: 5})
	generator := biz.NewGenerator(chat, &biz.GeneratorConfig{SystemPrompt: "You are a helpful financial assistant."})
	return biz.NewAdvisorService(retriever, generator, nil, store)
}

func TestAsk(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{0.9, 0.1}}
	chat := &fakeChat{answer: "营收增长了 12%。"}
	svc := newTestService(t, embedder, chat)

	result, err := svc.Ask(context.Background(), "营收表现如何？")
	require.NoError(t, err)
	assert.Equal(t, "营收增长了 12%。", result.Answer)
	require.Len(t, result.Sources, 2)
	// 最相似的分块排在最前
	assert.Equal(t, 0, result.Sources[0].Index)

	// prompt 按固定格式拼接
	assert.Contains(t, chat.lastPrompt, "Answer the question using only the following context from PDFs:\n")
	assert.Contains(t, chat.lastPrompt, "营收增长 12%\n负债率下降")
	assert.Contains(t, chat.lastPrompt, "\nQuestion: 营收表现如何？")
	assert.Equal(t, "You are a helpful financial assistant.", chat.lastSystem)
}

func TestAskEmptyQuestion(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{1, 0}}
	chat := &fakeChat{answer: "should not be called"}
	svc := newTestService(t, embedder, chat)

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), question)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrEmptyQuestion.Code))
	}

	// 空问题绝不触碰任何上游服务
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, chat.calls)
}

func TestAskEmbeddingProviderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("connection refused")}
	chat := &fakeChat{answer: "should not be called"}
	svc := newTestService(t, embedder, chat)

	_, err := svc.Ask(context.Background(), "营收表现如何？")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProvider.Code))
	// 检索失败后不再调用对话模型
	assert.Equal(t, 0, chat.calls)
}

func TestAskChatProviderFailure(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{1, 0}}
	chat := &fakeChat{err: fmt.Errorf("upstream timeout")}
	svc := newTestService(t, embedder, chat)

	_, err := svc.Ask(context.Background(), "营收表现如何？")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProvider.Code))
	// 对外只暴露通用的连接失败信息
	assert.Equal(t, "Unable to reach the language model service. Please try again later.",
		errors.FromError(err).Message(""))
}

func TestAskEmptyStoreReturnsFixedAnswer(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{1, 0}}
	chat := &fakeChat{answer: "should not be called"}
	store := &staticStore{store: vectorstore.New("test-model")}
	retriever := biz.NewRetriever(store, embedder, nil)
	generator := biz.NewGenerator(chat, nil)
	svc := biz.NewAdvisorService(retriever, generator, nil, store)

	result, err := svc.Ask(context.Background(), "营收表现如何？")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)
	assert.Empty(t, result.Sources)
	// 检索结果为空时不调用对话模型
	assert.Equal(t, 0, chat.calls)
}

func TestStats(t *testing.T) {
	embedder := &fakeEmbedder{embedding: []float32{1, 0}}
	chat := &fakeChat{answer: "ok"}
	svc := newTestService(t, embedder, chat)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	storeStats, ok := stats["store"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2, storeStats["records"])
	assert.Equal(t, 2, storeStats["dimension"])
	assert.Equal(t, "test-model", storeStats["embedder"])
}
