// Command ragsync rebuilds every retrieval corpus from the PMS and the
// property knowledge file, then persists the snapshot. Run it at deploy
// time or on a schedule.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/stayline/concierge/cmd/mainconfig"
	appconfig "github.com/stayline/concierge/internal/config"
	"github.com/stayline/concierge/internal/rag"
	"github.com/stayline/concierge/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, closeBackend, err := mainconfig.NewPMSBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize PMS backend", "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	blobs, err := mainconfig.NewBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		os.Exit(1)
	}

	embedder := rag.Embedder(rag.NewHashEmbedder(cfg.EmbeddingDim))
	if cfg.OpenAIAPIKey != "" {
		embedder = rag.NewFallbackEmbedder(
			rag.NewOpenAIEmbedder(openai.NewClient(cfg.OpenAIAPIKey), cfg.EmbeddingModel),
			rag.NewHashEmbedder(cfg.EmbeddingDim),
			logger,
		)
	}

	store := rag.NewStore(embedder, blobs, logger)
	rebuilder := rag.NewRebuilder(backend, store, cfg.PropertyInfoFile, logger)

	counts, err := rebuilder.RebuildAll(ctx)
	for corpus, n := range counts {
		logger.Info("corpus rebuilt", "corpus", corpus, "documents", n)
	}
	if err != nil {
		logger.Error("rebuild incomplete", "error", err)
		os.Exit(1)
	}
	logger.Info("all corpora rebuilt and saved")
}
