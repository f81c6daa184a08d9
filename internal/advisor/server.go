// Package advisor provides the financial advisor server implementation.
package advisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/finadvisor/internal/advisor/biz"
	"github.com/kart-io/finadvisor/internal/advisor/handler"
	"github.com/kart-io/finadvisor/internal/advisor/router"
	"github.com/kart-io/finadvisor/internal/pkg/vectorstore"
	"github.com/kart-io/finadvisor/pkg/app"
	"github.com/kart-io/finadvisor/pkg/llm"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/finadvisor/pkg/llm/mistral"
	_ "github.com/kart-io/finadvisor/pkg/llm/ollama"

	cacheopts "github.com/kart-io/finadvisor/pkg/options/cache"
	llmopts "github.com/kart-io/finadvisor/pkg/options/llm"
	logopts "github.com/kart-io/finadvisor/pkg/options/logger"
	ragopts "github.com/kart-io/finadvisor/pkg/options/rag"
	httpopts "github.com/kart-io/finadvisor/pkg/options/server/http"
)

// Name is the name of the application.
const Name = "finadvisor"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	RAGOptions       *ragopts.Options
	CacheOptions     *cacheopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the advisor server.
type Server struct {
	httpSrv         *http.Server
	reloader        *vectorstore.Reloader
	watchStore      bool
	redisClose      func()
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(_ context.Context) (*Server, error) {
	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting advisor service...")

	// 2. 加载向量存储
	// 存储文件损坏在启动时是致命错误，绝不带着损坏的知识库对外服务
	reloader, err := vectorstore.NewReloader(cfg.RAGOptions.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector store: %w", err)
	}
	snapshot := reloader.Snapshot()
	if snapshot.Embedder() != "" && snapshot.Embedder() != cfg.EmbeddingOptions.Model {
		logger.Warnw("store artifact was built with a different embedding model",
			"artifact_embedder", snapshot.Embedder(),
			"query_embedder", cfg.EmbeddingOptions.Model,
		)
	}
	logger.Infow("Vector store loaded",
		"path", cfg.RAGOptions.StorePath,
		"records", snapshot.Len(),
		"dimension", snapshot.Dimension(),
	)

	// 3. 初始化 Redis 客户端（用于缓存）
	var queryCache *biz.QueryCache
	var redisClose func()
	if cfg.CacheOptions.Enabled {
		redisOpts := cfg.CacheOptions.Redis
		if redisOpts == nil {
			logger.Warn("Cache is enabled but no Redis configuration provided in CacheOptions")
		} else {
			redisClient := goredis.NewClient(&goredis.Options{
				Addr:         fmt.Sprintf("%s:%d", redisOpts.Host, redisOpts.Port),
				Password:     redisOpts.Password,
				DB:           redisOpts.Database,
				MaxRetries:   redisOpts.MaxRetries,
				PoolSize:     redisOpts.PoolSize,
				MinIdleConns: redisOpts.MinIdleConns,
			})

			// 测试 Redis 连接
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
				_ = redisClient.Close()
			} else {
				queryCache = biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
					Enabled:   true,
					TTL:       cfg.CacheOptions.TTL,
					KeyPrefix: cfg.CacheOptions.KeyPrefix,
				})
				redisClose = func() { _ = redisClient.Close() }
				logger.Infow("Redis cache initialized",
					"host", redisOpts.Host,
					"port", redisOpts.Port,
					"ttl", cfg.CacheOptions.TTL,
				)
			}
		}
	} else {
		logger.Info("Cache is disabled")
	}

	// 4. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 5. 初始化 Biz 层
	retriever := biz.NewRetriever(reloader, embedProvider, &biz.RetrieverConfig{
		TopK: cfg.RAGOptions.TopK,
	})
	generator := biz.NewGenerator(chatProvider, &biz.GeneratorConfig{
		SystemPrompt: cfg.RAGOptions.SystemPrompt,
	})
	advisorService := biz.NewAdvisorService(retriever, generator, queryCache, reloader)
	tradingBook := biz.NewBook()
	logger.Infow("Advisor service initialized",
		"top_k", cfg.RAGOptions.TopK,
		"cache.enabled", cfg.CacheOptions.Enabled,
	)

	// 6. 初始化 Handler 层与路由
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	router.Register(engine,
		handler.NewAdvisorHandler(advisorService),
		handler.NewTradeHandler(tradingBook),
	)

	// 7. 初始化 HTTP 服务器
	httpSrv := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("Advisor service is ready")
	return &Server{
		httpSrv:         httpSrv,
		reloader:        reloader,
		watchStore:      cfg.RAGOptions.WatchStore,
		redisClose:      redisClose,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if s.redisClose != nil {
			s.redisClose()
		}
	}()

	if s.watchStore {
		if err := s.reloader.Watch(ctx); err != nil {
			logger.Warnw("failed to watch store artifact, hot reload disabled", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down advisor service...")
	shutdownTimeout := s.shutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Advisor service stopped")
	return nil
}
