// Package main is the campus assistant API server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"campus-assist-api/internal/application/chat"
	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/application/translation"
	"campus-assist-api/internal/config"
	"campus-assist-api/internal/domain/repository"
	"campus-assist-api/internal/infrastructure/embedding"
	"campus-assist-api/internal/infrastructure/llm"
	"campus-assist-api/internal/infrastructure/persistence/memory"
	"campus-assist-api/internal/infrastructure/persistence/milvus"
	"campus-assist-api/internal/infrastructure/persistence/postgres"
	redisstore "campus-assist-api/internal/infrastructure/persistence/redis"
	"campus-assist-api/internal/infrastructure/translate"
	"campus-assist-api/internal/interfaces/http/handler"
	"campus-assist-api/internal/interfaces/http/middleware"
	"campus-assist-api/internal/interfaces/http/router"
	"campus-assist-api/pkg/logger"
	"campus-assist-api/pkg/tracer"
)

// Version info, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const sessionTTL = 7 * 24 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Postgres is optional: without it the exchange log endpoints
	// answer 503 but chat keeps working.
	var pgClient *postgres.Client
	var exchangeRepo repository.ExchangeRepository
	if cfg.Database.Postgres.Host != "" {
		pgClient, err = postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to postgres", err)
		}
		defer pgClient.Close()
		exchangeRepo = postgres.NewExchangeRepository(pgClient)
	} else {
		log.Warn("postgres not configured, exchange logging disabled")
	}

	// Redis is optional: without it sessions live in process memory and
	// rate limiting is off.
	var redisClient *redisstore.Client
	var limiter middleware.RateLimiter
	var trCache translation.Cache
	var sessions repository.ConversationStore
	if cfg.Cache.Redis.Host != "" {
		redisClient, err = redisstore.NewClient(&cfg.Cache.Redis)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to redis", err)
		}
		defer redisClient.Close()
		limiter = redisstore.NewRateLimiter(redisClient)
		trCache = redisstore.NewCache(redisClient)
		sessions = redisstore.NewConversationStore(redisClient, cfg.Chat.MaxHistoryTurns, sessionTTL)
	} else {
		log.Warn("redis not configured, using in-memory session store")
		sessions = memory.NewConversationStore(cfg.Chat.MaxHistoryTurns)
	}

	embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}

	// Milvus is optional: without it the vector index lives in process
	// memory and is rebuilt from disk on startup.
	var milvusClient *milvus.Client
	var index knowledge.VectorIndex
	if cfg.Vector.Milvus.Host != "" {
		milvusClient, err = milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			logger.Fatal(ctx, "failed to connect to milvus", err)
		}
		defer milvusClient.Close()
		index = milvus.NewRepository(milvusClient)
	} else {
		log.Warn("milvus not configured, using in-memory vector index")
		index = memory.NewVectorIndex()
	}

	loader := knowledge.NewLoader(cfg.Knowledge.DataDir, cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	indexer := knowledge.NewIndexer(embedder, index, loader, cfg.Embedding.BatchSize)
	loadKnowledge(ctx, index, indexer)

	translator := translation.NewService(
		translate.NewClient(&cfg.Translation),
		trCache,
		cfg.Translation.Retries,
		cfg.Translation.RetryDelay,
		cfg.Translation.CacheTTL,
	)

	generator := llm.NewGenerator(llm.NewEinoFactory(cfg), &cfg.LLM)

	recorder := chat.NewRecorder(exchangeRepo, 256, cfg.Chat.CommitTimeout)
	defer recorder.Close()

	pipeline := chat.NewPipeline(translator, embedder, index, generator, sessions, recorder, chat.Policy{
		TopK:              cfg.Chat.TopK,
		PromptTurns:       cfg.Chat.PromptTurns,
		HandoffThreshold:  cfg.Chat.HandoffThreshold,
		DegradedPenalty:   cfg.Chat.DegradedPenalty,
		PromptBudgetRunes: cfg.Chat.PromptBudget,
		CommitTimeout:     cfg.Chat.CommitTimeout,
	})

	r := router.New(cfg, router.Handlers{
		Health:   handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Chat:     handler.NewChatHandler(pipeline),
		Session:  handler.NewSessionHandler(sessions, cfg.Chat.MaxHistoryTurns),
		Language: handler.NewLanguageHandler(),
		Admin:    handler.NewAdminHandler(exchangeRepo, indexer),
		Limiter:  limiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

// loadKnowledge ensures the collection exists and builds the index from
// disk when it is still empty. Failure is not fatal: the server starts
// and /v1/chat answers with the handoff fallback until an admin reload
// succeeds.
func loadKnowledge(ctx context.Context, index knowledge.VectorIndex, indexer *knowledge.Indexer) {
	if !indexer.Enabled() {
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := index.EnsureCollection(loadCtx); err != nil {
		logger.Error(ctx, "failed to ensure vector collection", err)
		return
	}

	count, err := index.Count(loadCtx)
	if err != nil {
		logger.Error(ctx, "failed to count indexed chunks", err)
		return
	}
	if count > 0 {
		logger.Info(ctx, "knowledge index already populated", "chunks", count)
		return
	}

	n, err := indexer.Rebuild(loadCtx)
	if err != nil {
		logger.Error(ctx, "initial knowledge load failed", err)
		return
	}
	logger.Info(ctx, "knowledge base loaded", "chunks", n)
}
