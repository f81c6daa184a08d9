// Package extract 提供按文件扩展名分发的文档文本提取。
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kart-io/logger"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat 表示文件扩展名没有注册对应的提取器。
var ErrUnsupportedFormat = errors.New("extract: unsupported document format")

// Extractor 从本地文件中提取纯文本。
type Extractor func(path string) (string, error)

var extractors = map[string]Extractor{
	".txt": extractPlain,
	".md":  extractPlain,
	".pdf": extractPDF,
}

// Supported 返回扩展名是否有注册的提取器。扩展名不区分大小写。
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Text 提取文件的纯文本内容。
// 不支持的扩展名返回 ErrUnsupportedFormat。
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return fn(path)
}

func extractPlain(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	return string(content), nil
}

func extractPDF(path string) (string, error) {
	// 读取全部内容到内存，避免解析期间持有文件句柄
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取 PDF 文件失败: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析 PDF 失败: %w", err)
	}

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// 跳过无法解析的页面
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(text)
	}

	return content.String(), nil
}

// FindDocuments 在目录中查找所有支持的文档文件，按路径排序遍历。
// 无法访问的条目记录警告后跳过，不中断整个遍历；根目录本身不可访问时返回错误。
func FindDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if filepath.Clean(path) == filepath.Clean(dir) {
				return err
			}
			logger.Warnw("跳过无法访问的条目", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
