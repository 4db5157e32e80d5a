// Package docqa assembles the document question answering service.
package docqa

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/handler"
	"github.com/kart-io/docqa/internal/docqa/router"
	"github.com/kart-io/docqa/internal/pkg/extract"
	"github.com/kart-io/docqa/pkg/app"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/llm/resilience"
	"github.com/kart-io/docqa/pkg/pool"
	"github.com/kart-io/docqa/pkg/ratelimit"

	// Register LLM providers.
	_ "github.com/kart-io/docqa/pkg/llm/ollama"
	_ "github.com/kart-io/docqa/pkg/llm/openai"
)

const (
	appName        = "docqa"
	appDescription = `Document Question Answering Service

Answers batches of natural language questions over PDF, DOCX, and EML
documents referenced by URL.

This server provides:
  - Document download, text extraction, and chunking
  - Embedding-based semantic retrieval over an in-memory index
  - LLM answer generation with per-question failure isolation`
)

// NewApp creates the application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Document question answering service"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run wires all components and serves until shutdown.
func Run(opts *Options) error {
	fmt.Printf("Starting %s...\n", appName)

	// 1. Logger
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting document QA service...")

	// 2. LLM providers, wrapped with retry and circuit breaking.
	// Retries live in the resilience wrapper only; the provider's inner
	// HTTP client is told not to retry so attempts do not multiply.
	embedConfig := opts.Embedding.ToConfigMap()
	embedConfig["max_retries"] = 0
	rawEmbed, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, embedConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	embedRetry := resilience.DefaultRetryConfig()
	if opts.Embedding.MaxRetries > 0 {
		embedRetry.MaxAttempts = opts.Embedding.MaxRetries + 1
	}
	var embedProvider llm.EmbeddingProvider = resilience.NewResilientEmbeddingProvider(rawEmbed, embedRetry, nil)
	logger.Infow("Embedding provider initialized",
		"provider", opts.Embedding.Provider,
		"model", opts.Embedding.Model,
	)

	chatConfig := opts.Chat.ToConfigMap()
	chatConfig["max_retries"] = 0
	rawChat, err := llm.NewChatProvider(opts.Chat.Provider, chatConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	chatRetry := resilience.DefaultRetryConfig()
	if opts.Chat.MaxRetries > 0 {
		chatRetry.MaxAttempts = opts.Chat.MaxRetries + 1
	}
	chatProvider := resilience.NewResilientChatProvider(rawChat, chatRetry, nil)
	logger.Infow("Chat provider initialized",
		"provider", opts.Chat.Provider,
		"model", opts.Chat.Model,
	)

	// 3. Redis (optional)
	srv, engine := NewServer(opts.HTTP)

	var redisClient *goredis.Client
	if opts.Redis.Enabled {
		client := opts.Redis.NewClient()
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warnw("failed to connect to redis, redis features disabled", "error", err.Error())
			_ = client.Close()
		} else {
			redisClient = client
			srv.OnShutdown(func() { _ = client.Close() })
			logger.Infow("Redis client initialized", "addr", opts.Redis.Addr())
		}
	}

	// Redis also serves as an embedding cache. Chunk embeddings survive
	// process restarts and repeated runs over the same document.
	var embedCache *llm.CachedEmbeddingProvider
	if redisClient != nil {
		embedCache = llm.NewCachedEmbeddingProvider(embedProvider, redisClient, nil)
		embedProvider = embedCache
	}

	// 4. Rate limiter
	var limiter ratelimit.Limiter
	if opts.RateLimit.Engine == "redis" && redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, opts.RateLimit.MaxRequests, opts.RateLimit.Window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(opts.RateLimit.MaxRequests, opts.RateLimit.Window)
	}
	logger.Infow("Rate limiter initialized",
		"engine", opts.RateLimit.Engine,
		"max_requests", opts.RateLimit.MaxRequests,
		"window", opts.RateLimit.Window.String(),
	)

	// 5. Worker pool
	workers, err := pool.NewPool("pipeline", pool.PipelinePool, pool.PipelinePoolConfig(opts.Pipeline.Concurrency))
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	srv.OnShutdown(func() {
		if err := workers.ReleaseTimeout(opts.HTTP.ShutdownTimeout); err != nil {
			logger.Warnw("worker pool release timed out", "error", err.Error())
		}
	})

	// 6. Pipeline
	extractor := extract.NewExtractor(opts.Pipeline.DownloadTimeout, opts.Pipeline.DownloadRetries, opts.Pipeline.MaxDocumentBytes)
	chunker := biz.NewChunker(biz.ChunkerConfig{
		ChunkSize:  opts.Pipeline.ChunkSize,
		ChunkFloor: opts.Pipeline.ChunkFloor,
	})
	indexer := biz.NewIndexer(embedProvider, biz.IndexerConfig{
		BatchSize: opts.Pipeline.EmbedBatchSize,
		Normalize: opts.Pipeline.Normalize,
	})
	retriever := biz.NewRetriever(indexer, biz.RetrieverConfig{
		TopK:           opts.Pipeline.TopK,
		ChunkCharLimit: opts.Pipeline.ChunkCharLimit,
	})
	prompts := biz.NewPromptBuilder(opts.Pipeline.TokenBudget)
	generator := biz.NewGenerator(chatProvider)
	docCache := biz.NewDocCache(biz.DocCacheConfig{
		Capacity: opts.Pipeline.CacheCapacity,
		TTL:      opts.Pipeline.CacheTTL,
	})
	ansCache := biz.NewAnswerCache(redisClient, biz.AnswerCacheConfig{
		Enabled: redisClient != nil,
		TTL:     opts.Pipeline.CacheTTL,
	})

	service := biz.NewQAService(
		extractor, chunker, indexer, retriever, prompts, generator,
		docCache, ansCache, workers,
		biz.QAServiceConfig{Concurrency: opts.Pipeline.Concurrency},
	)
	if embedCache != nil {
		service.AddClearHook(embedCache.ClearCache)
	}
	logger.Info("QA pipeline initialized")

	// 7. HTTP layer
	apiConfigured := opts.Chat.APIKey != "" || !opts.Chat.RequiresAPIKey()
	qaHandler := handler.NewQAHandler(service, appName, app.GetVersion(), apiConfigured)
	router.Register(engine, qaHandler, limiter, opts.Auth.Token)

	logger.Info("Document QA service is ready")
	return srv.Run()
}
