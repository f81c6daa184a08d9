// Package rag provides retrieval pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/finadvisor/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// DefaultSystemPrompt is the fixed persona sent with every completion call.
const DefaultSystemPrompt = "You are a helpful financial assistant."

// Options contains retrieval pipeline configuration.
type Options struct {
	// ChunkSize is the size of text chunks in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// StorePath is the path of the persisted embeddings artifact.
	StorePath string `json:"store-path" mapstructure:"store-path"`

	// DocsDir is the directory containing source documents to index.
	DocsDir string `json:"docs-dir" mapstructure:"docs-dir"`

	// WatchStore enables hot reload of the store artifact while serving.
	WatchStore bool `json:"watch-store" mapstructure:"watch-store"`

	// SystemPrompt is the system persona for answer generation.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:    500,
		TopK:         5,
		StorePath:    "embeddings.json",
		DocsDir:      "./docs",
		WatchStore:   false,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// AddFlags adds flags for retrieval options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"rag.chunk-size", o.ChunkSize, "Size of text chunks in characters.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Number of results from similarity search.")
	fs.StringVar(&o.StorePath, options.Join(prefixes...)+"rag.store-path", o.StorePath, "Path of the persisted embeddings artifact.")
	fs.StringVar(&o.DocsDir, options.Join(prefixes...)+"rag.docs-dir", o.DocsDir, "Directory containing source documents.")
	fs.BoolVar(&o.WatchStore, options.Join(prefixes...)+"rag.watch-store", o.WatchStore, "Reload the store artifact when it changes on disk.")
	fs.StringVar(&o.SystemPrompt, options.Join(prefixes...)+"rag.system-prompt", o.SystemPrompt, "System persona for answer generation.")
}

// Validate validates the retrieval options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-size must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.StorePath == "" {
		errs = append(errs, fmt.Errorf("store-path is required"))
	}
	return errs
}

// Complete completes the retrieval options with defaults.
func (o *Options) Complete() error {
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return nil
}
