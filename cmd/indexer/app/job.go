// Package app provides the indexing job application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/cmd/indexer/app/options"
	"github.com/kart-io/finadvisor/internal/indexer"
	"github.com/kart-io/finadvisor/pkg/app"
	"github.com/kart-io/finadvisor/pkg/llm"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/finadvisor/pkg/llm/mistral"
	_ "github.com/kart-io/finadvisor/pkg/llm/ollama"
)

const (
	// Name is the name of the application.
	Name = "finadvisor-indexer"

	// commandDesc is the description of the command.
	commandDesc = `Financial Advisor Indexer

An offline batch job that rebuilds the embeddings store from a directory of
source documents (txt, md, pdf). Each run is a full rebuild: documents are
chunked, embedded, and persisted to a single JSON artifact which the advisor
service loads at startup.`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewJobOptions()
	application := app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for the indexing job.
func run(opts *options.JobOptions) app.RunFunc {
	return func() error {
		opts.LogOptions.AddInitialField("service.name", Name)
		opts.LogOptions.AddInitialField("service.version", app.GetVersion())
		if err := opts.LogOptions.Init(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		embedder, err := llm.NewEmbeddingProvider(opts.EmbeddingOptions.Provider, opts.EmbeddingOptions.ToConfigMap())
		if err != nil {
			return fmt.Errorf("failed to initialize embedding provider: %w", err)
		}
		logger.Infow("Embedding provider initialized",
			"provider", opts.EmbeddingOptions.Provider,
			"model", opts.EmbeddingOptions.Model,
		)

		job, err := indexer.New(indexer.Config{
			DocsDir:     opts.RAGOptions.DocsDir,
			StorePath:   opts.RAGOptions.StorePath,
			ChunkSize:   opts.RAGOptions.ChunkSize,
			Concurrency: opts.Concurrency,
			Embedder:    embedder,
			EmbedModel:  opts.EmbeddingOptions.Model,
		})
		if err != nil {
			return fmt.Errorf("failed to create indexing job: %w", err)
		}

		ctx := setupSignalContext()
		summary, err := job.Run(ctx)
		if err != nil {
			return fmt.Errorf("indexing job failed: %w", err)
		}

		fmt.Printf("Indexed %d documents (%d skipped), %d chunks (%d failed), dimension %d -> %s\n",
			summary.Documents, summary.SkippedDocuments,
			summary.Chunks, summary.FailedChunks,
			summary.Dimension, opts.RAGOptions.StorePath)
		return nil
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
