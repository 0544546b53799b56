package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenolt/chatrelay/internal/adapter/chat/bridge"
	"github.com/xenolt/chatrelay/internal/adapter/llm"
	"github.com/xenolt/chatrelay/internal/config"
	"github.com/xenolt/chatrelay/internal/pairing"
	"github.com/xenolt/chatrelay/internal/registry"
	"github.com/xenolt/chatrelay/internal/router"
	"github.com/xenolt/chatrelay/internal/store"
	relayhttp "github.com/xenolt/chatrelay/internal/transport/http"
	"github.com/xenolt/chatrelay/policy"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting relay",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("bridge_url", cfg.BridgeURL),
		zap.String("model", cfg.Model))

	// Audit store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	// Pairing artifacts
	artifacts, err := pairing.NewStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to initialize pairing store", zap.Error(err))
	}

	// Model client
	modelClient := llm.NewModelClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.ModelTemperature, logger)

	// Admission policy
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	// Session registry and message router
	reg := registry.New(bridge.NewFactory(cfg.BridgeURL, logger), artifacts, logger)
	rtr := router.New(reg, modelClient, db, engine, cfg.ModelTimeout, logger)
	reg.SetInbound(rtr.HandleInbound)

	// Admin HTTP server
	server := relayhttp.NewServer(reg, db, cfg.PublicDir, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("admin API started", zap.Int("port", cfg.HTTPPort))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}
	reg.Close()

	logger.Info("relay stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
