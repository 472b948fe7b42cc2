// Package main provides the API server entry point for the wallet resolver service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-resolver/internal/api"
	"github.com/wallet-resolver/internal/config"
	"github.com/wallet-resolver/internal/logging"
	"github.com/wallet-resolver/internal/resolver"
	"github.com/wallet-resolver/internal/seed"
	"github.com/wallet-resolver/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Connect to the primary document store. Without it the service has
	// nothing to resolve against, so failure here is fatal.
	logger.Info("Connecting to stores...")

	redis, err := storage.NewRedisStore(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	stores := []storage.DocumentStore{storage.NewRedisDocumentStore(redis)}

	// The legacy store is a fallback; when unreachable the service
	// degrades to primary-only rather than refusing to start.
	if cfg.Database.Postgres.Enabled {
		postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
		if err != nil {
			logger.WithError(err).Warn("Legacy store unavailable; continuing with primary store only")
		} else {
			defer postgres.Close()
			stores = append(stores, storage.NewPostgresDocumentStore(postgres))
		}
	}

	walletStore := storage.NewWalletStore(stores...)

	// Load the seed set and populate the store so the resolver's static
	// layers have data to find on a fresh deployment.
	seeds, err := seed.Load(cfg.Seed.File)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load seed set")
	}

	if cfg.Seed.RunOnStart {
		seeder := seed.NewSeeder(walletStore, seeds)
		if !seeder.InitializeKnownWallets(context.Background()) {
			logger.Warn("Seed initialization completed with failures")
		}
	}

	// Wire the resolver
	res := resolver.New(walletStore, seeds, cfg.Resolver.DefaultStartupWallet, cfg.Resolver.WriteBackTimeout)

	// Resolution audit log is optional
	if cfg.Database.ClickHouse.Enabled {
		clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Warn("Audit log store unavailable; resolutions will not be recorded")
		} else {
			defer clickhouse.Close()

			events := storage.NewResolutionEventRepository(clickhouse)
			schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := events.CreateSchema(schemaCtx); err != nil {
				logger.WithError(err).Warn("Failed to prepare audit log schema")
			} else {
				res.SetEventLog(events)
				logger.Info("Resolution audit log enabled")
			}
			cancel()
		}
	}

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerSec:  cfg.RateLimit.RequestsPerSecond,
		Burst:           cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, res, walletStore)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
