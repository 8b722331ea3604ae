package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"LexiMind/backend/go/internal/config"
	"LexiMind/backend/go/internal/database/kafka"
	"LexiMind/backend/go/internal/database/minio"
	"LexiMind/backend/go/internal/database/mongo"
	"LexiMind/backend/go/internal/database/redis"
	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/orchestrator_service/api"
	"LexiMind/backend/go/internal/orchestrator_service/publisher"
	"LexiMind/backend/go/internal/orchestrator_service/service"
	"LexiMind/backend/go/internal/orchestrator_service/store"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
	"LexiMind/backend/go/pkg/ratelimiter"
	"LexiMind/backend/go/pkg/retry"
)

func main() {
	cfg, err := config.LoadConfig("backend/go/internal/config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)
	serviceLogger := logger.New("orchestrator_service", "", "")

	ctx := context.Background()

	// Connect backing stores.
	mongoClient, err := mongo.Connect(ctx, &cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	redisClient, err := redis.Connect(ctx, &cfg.Databases.Redis)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
	}
	minioClient, err := minio.Connect(ctx, &cfg.Databases.MinIO)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MinIO")
	}
	if err := kafka.EnsureTopics(&cfg.Databases.Kafka); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to ensure Kafka topics")
	}
	serviceLogger.Info("Connected to MongoDB, Redis, MinIO and Kafka")

	// Build the provider clients in configured priority order.
	clients, err := provider.NewClients(ctx, cfg.Providers)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create analysis providers")
	}

	retryCfg := retry.Config{
		MaxAttempts:    cfg.Orchestrator.Retry.MaxAttempts,
		BaseDelay:      mustDuration("retry.baseDelay", cfg.Orchestrator.Retry.BaseDelay, serviceLogger),
		MaxDelay:       mustDuration("retry.maxDelay", cfg.Orchestrator.Retry.MaxDelay, serviceLogger),
		AttemptTimeout: mustDuration("retry.attemptTimeout", cfg.Orchestrator.Retry.AttemptTimeout, serviceLogger),
	}

	classifier, err := service.NewClassifier(service.ClassifierOptions{
		Escalation:        clients[0],
		EscalationTimeout: mustDuration("classifier.escalationTimeout", cfg.Orchestrator.Classifier.EscalationTimeout, serviceLogger),
		CacheCapacity:     cfg.Orchestrator.Classifier.CacheCapacity,
		CacheTTL:          mustDuration("classifier.cacheTTL", cfg.Orchestrator.Classifier.CacheTTL, serviceLogger),
	}, serviceLogger)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create classifier")
	}

	analysisClients := make([]service.AnalysisClient, len(clients))
	for i, c := range clients {
		analysisClients[i] = c
	}
	parallel := service.NewParallelStage(analysisClients, retryCfg, serviceLogger)
	chain := service.NewSequentialStage(clients[0], service.ContractChain(), retryCfg, serviceLogger)

	tasks := service.NewTaskManager(service.RetentionPolicy{
		TTL:         mustDuration("retention.ttl", cfg.Orchestrator.Retention.TTL, serviceLogger),
		MaxTerminal: cfg.Orchestrator.Retention.MaxTerminal,
	})

	sink := store.NewMongoResultSink(mongoClient, cfg.Databases.MongoDB.Database, cfg.Orchestrator.ReportsCollection)
	docs := store.NewDocumentReader(
		mongoClient, cfg.Databases.MongoDB.Database, cfg.Documents.Collection,
		minioClient, cfg.Orchestrator.DocumentsBucket,
		redisClient, mustDuration("documents.textCacheTTL", cfg.Documents.TextCacheTTL, serviceLogger),
	)
	events := publisher.NewEventPublisher(cfg.Databases.Kafka.Brokers, cfg.Orchestrator.EventsTopic)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Tasks:      tasks,
		Classifier: classifier,
		Parallel:   parallel,
		Chain:      chain,
		Documents:  docs,
		Sink:       sink,
		Events:     events,
		Logger:     serviceLogger,
	})

	checks := map[string]api.HealthCheck{
		"mongodb": func(ctx context.Context) error { return mongo.HealthCheck(ctx, mongoClient) },
		"redis":   func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) },
		"minio":   func(ctx context.Context) error { return minio.HealthCheck(ctx, minioClient) },
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler := api.NewAPI(orchestrator, serviceLogger, checks)
	api.RegisterRoutes(router, apiHandler, ingressLimiter(cfg.Middleware.RateLimiter, serviceLogger))

	srv := &http.Server{
		Addr:    cfg.Orchestrator.ServerAddress,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}

	// Let accepted tasks reach a terminal state before closing anything.
	orchestrator.Wait()

	if err := events.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
	}
	if err := redisClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis client")
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}

// mustDuration parses a configured duration, treating empty as zero.
func mustDuration(name, value string, log *logger.Logger) time.Duration {
	if value == "" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal("Invalid duration for " + name + ": " + value)
	}
	return d
}

// ingressLimiter builds the HTTP ingress rate limiter from configuration.
// It returns nil when limiting is disabled.
func ingressLimiter(cfg config.RateLimiterConfig, log *logger.Logger) ratelimiter.RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Algorithm {
	case "", "tokenBucket":
		return ratelimiter.NewTokenBucket(cfg.TokenBucket.Rate, cfg.TokenBucket.Capacity)
	case "fixedWindow":
		window := mustDuration("middleware.rateLimiter.fixedWindow.window", cfg.FixedWindow.Window, log)
		return ratelimiter.NewFixedWindowCounter(cfg.FixedWindow.Limit, window)
	default:
		log.Fatal("Unknown rate limiter algorithm: " + cfg.Algorithm)
		return nil
	}
}
