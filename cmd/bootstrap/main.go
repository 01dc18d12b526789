// Package main bootstraps the system: runs database migrations and
// builds the initial knowledge index.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/config"
	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/infrastructure/embedding"
	"campus-assist-api/internal/infrastructure/persistence/milvus"
	"campus-assist-api/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 1. migrate the exchange log schema
	if cfg.Database.Postgres.Host != "" {
		pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pgClient.Close()

		fmt.Println("Running database migrations...")
		if err := pgClient.DB().WithContext(ctx).AutoMigrate(&entity.ExchangeRecord{}); err != nil {
			log.Fatalf("failed to migrate exchange_records: %v", err)
		}
		fmt.Println("Database migrations completed.")
	} else {
		fmt.Println("Postgres not configured, skipping migrations.")
	}

	// 2. build the knowledge index
	if cfg.Vector.Milvus.Host == "" {
		fmt.Println("Milvus not configured, skipping index build (the API server builds its in-memory index on startup).")
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		log.Fatalf("failed to init embedder: %v", err)
	}

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Fatalf("failed to connect to milvus: %v", err)
	}
	defer milvusClient.Close()

	index := milvus.NewRepository(milvusClient)
	loader := knowledge.NewLoader(cfg.Knowledge.DataDir, cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	indexer := knowledge.NewIndexer(embedder, index, loader, cfg.Embedding.BatchSize)

	fmt.Printf("Building knowledge index from %s...\n", cfg.Knowledge.DataDir)
	count, err := indexer.Rebuild(ctx)
	if err != nil {
		log.Fatalf("failed to build knowledge index: %v", err)
	}
	fmt.Printf("Knowledge index built with %d chunks.\n", count)

	fmt.Println("Bootstrap completed successfully.")
}
