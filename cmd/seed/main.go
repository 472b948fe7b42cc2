// Package main provides a CLI tool for seeding known wallet records.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/wallet-resolver/internal/config"
	"github.com/wallet-resolver/internal/logging"
	"github.com/wallet-resolver/internal/seed"
	"github.com/wallet-resolver/internal/storage"
)

func main() {
	seedFile := flag.String("file", "", "Path to a JSON seed set (default: embedded set)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	redis, err := storage.NewRedisStore(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	stores := []storage.DocumentStore{storage.NewRedisDocumentStore(redis)}

	if cfg.Database.Postgres.Enabled {
		postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
		if err != nil {
			logger.WithError(err).Warn("Legacy store unavailable; seeding primary store only")
		} else {
			defer postgres.Close()
			stores = append(stores, storage.NewPostgresDocumentStore(postgres))
		}
	}

	path := *seedFile
	if path == "" {
		path = cfg.Seed.File
	}

	seeds, err := seed.Load(path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load seed set")
	}

	seeder := seed.NewSeeder(storage.NewWalletStore(stores...), seeds)
	if !seeder.InitializeKnownWallets(context.Background()) {
		logger.Error("Seeding completed with failures")
		os.Exit(1)
	}

	logger.Info("Seeding completed successfully")
}
