package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/sweetshop/gateway"
	"github.com/example/sweetshop/pkg/cache"
	"github.com/example/sweetshop/pkg/config"
	"github.com/example/sweetshop/pkg/store"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting sweet shop order service",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	// Connect to MongoDB. A failed connection is not fatal: the store runs
	// unavailable and reads degrade to empty results.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	var handle store.Handle
	mongoHandle, err := store.NewMongoHandle(ctx, &cfg.MongoDB)
	if err != nil {
		logger.Warn("MongoDB connection failed, store will run unavailable", zap.Error(err))
	} else if err := mongoHandle.Ping(ctx); err != nil {
		logger.Warn("MongoDB ping failed, store will run unavailable", zap.Error(err))
		mongoHandle.Close(ctx)
	} else {
		logger.Info("MongoDB connected successfully",
			zap.String("database", cfg.MongoDB.Database),
			zap.String("collection", cfg.MongoDB.Collection))
		handle = mongoHandle
	}
	cancel()

	orderStore := store.New(handle, logger)

	// Redis summary cache
	summaryCache := cache.NewSummaryCache(&cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := summaryCache.Ping(pingCtx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	pingCancel()

	// Create gateway
	gw := gateway.NewGateway(cfg, logger, orderStore, summaryCache)
	gw.SetupRoutes()

	// Start gateway in goroutine
	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	summaryCache.Close()
	if handle != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := mongoHandle.Close(closeCtx); err != nil {
			logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
		closeCancel()
	}

	logger.Info("Service stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
