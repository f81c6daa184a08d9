package extract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kart-io/finadvisor/internal/pkg/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"纯文本", "report.txt", true},
		{"Markdown", "notes.md", true},
		{"PDF", "annual.pdf", true},
		{"大写扩展名", "ANNUAL.PDF", true},
		{"不支持的格式", "data.csv", false},
		{"无扩展名", "README", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extract.Supported(tt.path))
		})
	}
}

func TestTextPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("季度营收增长 12%"), 0o644))

	text, err := extract.Text(path)
	require.NoError(t, err)
	assert.Equal(t, "季度营收增长 12%", text)
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := extract.Text("data.csv")
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestTextMissingFile(t *testing.T) {
	_, err := extract.Text(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestFindDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte("c"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.txt"), []byte("d"), 0o644))

	files, err := extract.FindDocuments(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	for _, f := range files {
		assert.True(t, extract.Supported(f))
	}
}

func TestFindDocumentsSkipsInaccessibleEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("ok"), 0o644))

	// 不可读的子目录不应中断整个遍历
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := extract.FindDocuments(dir)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, filepath.Join(dir, "good.txt"), files[0])
}

func TestFindDocumentsMissingRoot(t *testing.T) {
	_, err := extract.FindDocuments(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
