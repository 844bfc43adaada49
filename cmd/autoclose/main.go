package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/classifier"
	"contact-autoclose/pkg/config"
	"contact-autoclose/pkg/detector"
	"contact-autoclose/pkg/embedding"
	"contact-autoclose/pkg/engine"
	"contact-autoclose/pkg/metrics"
	"contact-autoclose/pkg/models"
	redisClient "contact-autoclose/pkg/redis"
	"contact-autoclose/pkg/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Starting contact auto-close service")

	// Initialize metrics
	m := metrics.NewMetrics()

	// Optional Redis tier for the embedding cache
	var store embedding.Store
	if cfg.EmbedCacheMode == "redis" {
		redisConfig := redisClient.DefaultConnectionConfig()
		redisConfig.URL = cfg.RedisURL

		rc, err := redisClient.NewClient(redisConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer rc.Close()

		store = embedding.NewRedisStore(rc.GetRedisClient())
	}

	// Remote capabilities
	provider := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingEndpoint)
	completer := classifier.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.CompletionEndpoint)

	gateway := embedding.NewGateway(provider, store, logger, m)
	det := detector.New(gateway, cfg.SimilarityThreshold, logger, m)
	cls := classifier.New(completer, logger, m)

	events := engine.Events{
		OnFired: func(conversationID string, cause models.CloseCause, mode models.TimerMode) {
			logger.WithFields(logrus.Fields{
				"conversation_id": conversationID,
				"cause":           cause,
				"mode":            mode,
			}).Info("Contact closed")
		},
		OnCanceled: func(conversationID, reason string) {
			logger.WithFields(logrus.Fields{
				"conversation_id": conversationID,
				"reason":          reason,
			}).Info("Auto-close canceled")
		},
	}

	eng := engine.New(cfg, det, cls, events, logger, m)

	// Pre-embed the reference set so the first detection doesn't pay for it
	warmupCtx, warmupCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := det.InitializeReferences(warmupCtx); err != nil {
		logger.WithError(err).Warn("Reference embedding warmup failed, detection will fall back to keywords until it succeeds")
	}
	warmupCancel()

	// Start HTTP server
	srv := server.NewHTTPServer(cfg, eng, logger)
	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
	eng.Shutdown()

	logger.Info("Contact auto-close service shutdown complete")
}
