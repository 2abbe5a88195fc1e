package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcclellann/emiLedger/pkg/config"
	"github.com/mcclellann/emiLedger/pkg/store"
	"github.com/sirupsen/logrus"
)

func openStorage(cfg *config.Config) (store.Storage, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.OpenFileStore(cfg.FilePath)
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewSQLiteStore(cfg.DSN)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	storage, err := openStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize %s store: %v", cfg.Backend, err)
	}
	server := NewServer(storage, cfg.StorageKey, logger)
	defer func() {
		if err := server.Close(); err != nil {
			logger.Errorf("Failed to close store: %v", err)
		}
	}()
	if cfg.SeedSample {
		if err := server.ledger.SeedIfEmpty(context.Background()); err != nil {
			logger.Fatalf("Failed to seed sample customers: %v", err)
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("backend", cfg.Backend).Infof("Server starting on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
