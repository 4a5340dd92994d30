// Copyright (c) 2024 cblomart
// Licensed under the MIT License

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"newslens/internal/ai"
	"newslens/internal/analysis"
	"newslens/internal/api"
	"newslens/internal/cache"
	"newslens/internal/cluster"
	"newslens/internal/config"
	"newslens/internal/ingest"
	"newslens/internal/recommend"
	"newslens/internal/storage"
	"newslens/internal/vecindex"

	_ "newslens/docs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize cache for hot data
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Initialize persistent storage
	storageManager, err := storage.NewStorage(cfg.DataDir, cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Clean up old articles based on retention policy
	log.Printf("Cleaning up articles older than %v", cfg.ArticleRetention)
	if err := storageManager.CleanupOldArticles(cfg.ArticleRetention); err != nil {
		log.Printf("Warning: failed to cleanup old articles: %v", err)
	}

	// Rebuild the in-memory vector index from persisted embeddings. Startup
	// blocks until this finishes so searches never run against a partial index.
	index := vecindex.New(storageManager, cfg.EmbeddingDim, cfg.FreshnessWindow, cfg.ProfileSearchMultiplier)
	log.Printf("Rebuilding vector index from storage...")
	vectors, err := storageManager.ListCompletedEmbeddings()
	if err != nil {
		log.Fatal("Failed to load embeddings for index rebuild:", err)
	}
	if err := index.Build(vectors); err != nil {
		log.Fatal("Failed to rebuild vector index:", err)
	}
	log.Printf("Vector index rebuilt with %d vectors", index.Len())

	// Initialize AI client and analysis pipeline
	aiClient := ai.NewClient(cfg.AI, cfg.EmbeddingDim)
	clusterEngine := cluster.New(storageManager, cfg.SimilarityThreshold, cfg.ClusterRecencyWindow)
	pipeline := analysis.New(storageManager, aiClient, aiClient, aiClient, index, clusterEngine, cfg.CandidateCategories, cfg.EmbeddingDim)

	// Initialize recommendation service
	recommender := recommend.New(storageManager, index, cacheManager, cfg.ColdStartThreshold, cfg.FreshnessWindow, cfg.CacheTTL)

	// Initialize background feed poller
	backgroundPoller := ingest.New(storageManager, pipeline, cfg.Sources, cfg.PollInterval)
	backgroundPoller.Start()

	// Initialize API server
	server := api.NewServer(storageManager, pipeline, recommender, index, backgroundPoller, cfg)

	log.Printf("Starting NewsLens server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Cache TTL: %v", cfg.CacheTTL)
	log.Printf("Article retention: %v", cfg.ArticleRetention)
	log.Printf("Background polling interval: %v", cfg.PollInterval)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start signal handler in goroutine
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		backgroundPoller.Stop()
		cancel() // Cancel the context to stop the server
	}()

	// Start the server with context for graceful shutdown
	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
