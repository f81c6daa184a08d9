package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/internal/advisor/metrics"
	"github.com/kart-io/finadvisor/pkg/errors"
	"github.com/kart-io/finadvisor/pkg/llm"
)

// promptInstruction 是拼接到上下文之前的固定指令。
const promptInstruction = "Answer the question using only the following context from PDFs:\n"

// noKnowledgeAnswer 是检索结果为空时返回的固定回答。
const noKnowledgeAnswer = "I could not find any relevant information in the knowledge base to answer your question."

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 发送给对话模型的系统角色设定。
	SystemPrompt string
}

// Generator 组装 grounding prompt 并调用对话模型生成回答。
type Generator struct {
	chat   llm.ChatProvider
	config *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chat llm.ChatProvider, config *GeneratorConfig) *Generator {
	if config == nil {
		config = &GeneratorConfig{}
	}
	return &Generator{chat: chat, config: config}
}

// BuildPrompt 确定性地拼接 prompt：固定指令、换行连接的上下文分块、问题。
func BuildPrompt(question string, chunks []string) string {
	var sb strings.Builder
	sb.WriteString(promptInstruction)
	sb.WriteString(strings.Join(chunks, "\n"))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

// Generate 生成回答。检索结果为空时不调用模型，直接返回固定回答；
// 模型调用失败时返回 ErrProvider，对外只暴露通用的连接失败信息。
func (g *Generator) Generate(ctx context.Context, question string, chunks []string) (string, error) {
	if len(chunks) == 0 {
		logger.Infow("检索结果为空，返回固定回答", "question_length", len(question))
		return noKnowledgeAnswer, nil
	}

	prompt := BuildPrompt(question, chunks)
	answer, err := g.chat.Generate(ctx, prompt, g.config.SystemPrompt)
	metrics.GetAdvisorMetrics().RecordLLMCall(err)
	if err != nil {
		logger.Errorw("回答生成失败", "provider", g.chat.Name(), "error", err)
		return "", errors.ErrProvider.WithCause(err)
	}

	return answer, nil
}
