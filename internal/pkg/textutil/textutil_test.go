package textutil_test

import (
	"strings"
	"testing"

	"github.com/kart-io/finadvisor/internal/pkg/textutil"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "相同向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "正交向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "相反向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "空向量",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
		{
			name:     "长度不匹配",
			a:        []float32{1.0, 2.0},
			b:        []float32{1.0},
			expected: 0.0,
		},
		{
			name:     "零向量不产生 NaN",
			a:        []float32{0.0, 0.0, 0.0},
			b:        []float32{1.0, 2.0, 3.0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := textutil.CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestHashString(t *testing.T) {
	// 相同输入应产生相同输出
	hash1 := textutil.HashString("test")
	hash2 := textutil.HashString("test")
	assert.Equal(t, hash1, hash2)

	// 不同输入应产生不同输出
	hash3 := textutil.HashString("different")
	assert.NotEqual(t, hash1, hash3)

	// 哈希应为32字符的十六进制字符串
	assert.Len(t, hash1, 32)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "短于限制",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "等于限制",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "超过限制",
			input:    "hello world",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "中文字符",
			input:    "你好世界",
			maxLen:   2,
			expected: "你好",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := textutil.TruncateString(tt.input, tt.maxLen)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		expected  []string
	}{
		{
			name:      "空文本返回空切片",
			text:      "",
			chunkSize: 5,
			expected:  nil,
		},
		{
			name:      "短于块大小返回单块",
			text:      "abc",
			chunkSize: 5,
			expected:  []string{"abc"},
		},
		{
			name:      "恰好整除",
			text:      "abcdef",
			chunkSize: 3,
			expected:  []string{"abc", "def"},
		},
		{
			name:      "末块为余数",
			text:      "abcdefg",
			chunkSize: 3,
			expected:  []string{"abc", "def", "g"},
		},
		{
			name:      "中文按字符计数",
			text:      "你好世界再见",
			chunkSize: 2,
			expected:  []string{"你好", "世界", "再见"},
		},
		{
			name:      "非法块大小",
			text:      "abc",
			chunkSize: 0,
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := textutil.SplitIntoChunks(tt.text, tt.chunkSize)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSplitIntoChunksReconstruction(t *testing.T) {
	// 按顺序拼接所有块应精确还原原文
	text := strings.Repeat("财务数据分析 financial report ", 40)
	chunks := textutil.SplitIntoChunks(text, 500)
	assert.Equal(t, text, strings.Join(chunks, ""))

	// 块数应为 ceil(字符数/块大小)
	runeCount := len([]rune(text))
	expectedCount := (runeCount + 499) / 500
	assert.Len(t, chunks, expectedCount)
}
