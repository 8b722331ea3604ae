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

	"github.com/sirupsen/logrus"

	"LexiMind/backend/go/internal/config"
	"LexiMind/backend/go/internal/database/minio"
	"LexiMind/backend/go/internal/database/mongo"
	"LexiMind/backend/go/internal/database/redis"
	"LexiMind/backend/go/internal/document_service/api"
	"LexiMind/backend/go/internal/document_service/service"
	"LexiMind/backend/go/internal/document_service/store"
	"LexiMind/backend/go/internal/models"
	httpserver "LexiMind/backend/go/pkg/http"
	"LexiMind/backend/go/pkg/logger"
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
	serviceLogger := logger.New("document_service", "", "")

	ctx := context.Background()

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
	if err := minio.EnsureBucket(ctx, minioClient, cfg.Documents.Bucket); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to ensure MinIO bucket")
	}
	serviceLogger.Info("Connected to MongoDB, Redis and MinIO")

	cacheTTL, err := time.ParseDuration(cfg.Documents.TextCacheTTL)
	if err != nil {
		serviceLogger.Fatal("Invalid documents.textCacheTTL: " + cfg.Documents.TextCacheTTL)
	}

	metadata := store.NewMongoMetadataStore(mongoClient, cfg.Databases.MongoDB.Database, cfg.Documents.Collection)
	objects := store.NewMinioObjectStore(minioClient, cfg.Documents.Bucket)
	cache := store.NewRedisTextCache(redisClient, cacheTTL)
	documents := service.NewDocumentService(metadata, objects, cache, serviceLogger)

	checks := map[string]api.HealthCheck{
		"mongodb": func(ctx context.Context) error { return mongo.HealthCheck(ctx, mongoClient) },
		"redis":   func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) },
		"minio":   func(ctx context.Context) error { return minio.HealthCheck(ctx, minioClient) },
	}

	srv, err := httpserver.NewServer(cfg.Middleware, httpserver.WithAddress(cfg.Documents.ServerAddress))
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create HTTP server")
	}
	apiHandler := api.NewAPI(documents, serviceLogger, checks)
	api.RegisterRoutes(srv, apiHandler)

	go func() {
		serviceLogger.Info("Starting HTTP server on " + cfg.Documents.ServerAddress)
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

	if err := redisClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis client")
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}
