package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/stayline/concierge/cmd/mainconfig"
	"github.com/stayline/concierge/internal/api"
	"github.com/stayline/concierge/internal/booking"
	appconfig "github.com/stayline/concierge/internal/config"
	"github.com/stayline/concierge/internal/dialogue"
	"github.com/stayline/concierge/internal/extract"
	"github.com/stayline/concierge/internal/intent"
	"github.com/stayline/concierge/internal/llm"
	"github.com/stayline/concierge/internal/notify"
	"github.com/stayline/concierge/internal/observability/metrics"
	"github.com/stayline/concierge/internal/rag"
	"github.com/stayline/concierge/internal/session"
	"github.com/stayline/concierge/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"pms_backend", cfg.PMSBackend,
	)

	ctx := context.Background()

	backend, closeBackend, err := mainconfig.NewPMSBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize PMS backend", "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	redisClient := mainconfig.NewRedisClient(cfg)
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL)

	var llmClient llm.Client
	if cfg.LLMAPIKey != "" {
		client, err := llm.NewOpenAIClient(llm.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize LLM client", "error", err)
			os.Exit(1)
		}
		llmClient = client
	} else {
		logger.Warn("no LLM API key configured; running on deterministic fallbacks")
	}

	embedder := buildEmbedder(cfg, logger)
	blobs, err := mainconfig.NewBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		os.Exit(1)
	}
	ragStore := rag.NewStore(embedder, blobs, logger)
	if err := ragStore.Load(ctx); err != nil {
		logger.Warn("could not load persisted corpora, starting empty", "error", err)
	}
	rebuilder := rag.NewRebuilder(backend, ragStore, cfg.PropertyInfoFile, logger)

	convMetrics := metrics.NewConversationMetrics(nil)
	notifier := notify.NewService(
		notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger),
		notify.NewWebhookSender(cfg.NotifyWebhookURL, logger),
		cfg.StaffEmail,
		logger,
	)
	bookings := booking.NewService(backend, notifier, convMetrics, logger)

	engine := dialogue.NewEngine(
		intent.NewClassifier(logger),
		extract.NewExtractor(llmClient, convMetrics, logger),
		bookings,
		ragStore,
		llmClient,
		sessions,
		convMetrics,
		dialogue.Config{
			HistoryWindow:  cfg.HistoryWindow,
			PropertyName:   cfg.PropertyName,
			ReceptionPhone: cfg.ReceptionPhone,
		},
		logger,
	)

	router := api.NewRouter(&api.Config{
		Logger:         logger,
		ChatHandler:    api.NewChatHandler(engine, logger),
		RAGHandler:     api.NewRAGHandler(rebuilder, ragStore, logger),
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildEmbedder prefers real OpenAI embeddings with the deterministic
// hash embedder behind them, so retrieval keeps working offline.
func buildEmbedder(cfg *appconfig.Config, logger *logging.Logger) rag.Embedder {
	hash := rag.NewHashEmbedder(cfg.EmbeddingDim)
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("no OpenAI API key configured; using hash embeddings")
		return hash
	}
	primary := rag.NewOpenAIEmbedder(openai.NewClient(cfg.OpenAIAPIKey), cfg.EmbeddingModel)
	return rag.NewFallbackEmbedder(primary, hash, logger)
}
