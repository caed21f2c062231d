package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/adapter/artifact"
	"github.com/couchcryptid/wildfire-damage-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/wildfire-damage-service/internal/adapter/http"
	"github.com/couchcryptid/wildfire-damage-service/internal/config"
	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/inference"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	gin.SetMode(cfg.GinMode)

	schema := domain.DefaultSchema()
	bundle, err := artifact.Load(cfg.ModelPath, cfg.PreprocessorPath, artifact.Options{
		Schema:  schema,
		Timeout: cfg.InferenceTimeout,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Error("failed to load model artifacts", "error", err)
		os.Exit(1)
	}
	metrics.ModelLoaded.Set(1)

	predictor, closeCache, err := newPredictor(cfg, bundle, logger, metrics)
	if err != nil {
		logger.Error("failed to set up prediction cache", "error", err)
		os.Exit(1)
	}

	builder := inference.NewBuilder(schema, predictor, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, builder, builder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeCache(); err != nil {
		logger.Error("prediction cache close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newPredictor wraps the bundle's model in the configured prediction cache.
// The returned func releases the cache's resources.
func newPredictor(cfg *config.Config, bundle *artifact.Bundle, logger *slog.Logger, metrics *observability.Metrics) (domain.Predictor, func() error, error) {
	noop := func() error { return nil }
	model := bundle.Model

	switch cfg.CacheBackend {
	case config.CacheMemory:
		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "size", cfg.CacheSize, "model_id", bundle.ModelID)
		return cache.NewCachedPredictor(model, cache.NewLRUStore(cfg.CacheSize), bundle.ModelID, logger, metrics), noop, nil

	case config.CacheRedis:
		client, err := cache.Connect(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewRedisStore(client, cfg.CacheTTL)

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.CheckReadiness(pingCtx); err != nil {
			logger.Warn("redis not reachable, predictions will bypass the cache until it is", "error", err)
		}

		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL, "model_id", bundle.ModelID)
		return cache.NewCachedPredictor(model, store, bundle.ModelID, logger, metrics), store.Close, nil

	default:
		logger.Info("prediction cache disabled")
		return model, noop, nil
	}
}
