package main

import (
	"context"

	"bazaartrack/config"
	"bazaartrack/internal/bazaar/analytics"
	"bazaartrack/internal/bazaar/collector"
	"bazaartrack/internal/bazaar/stream"
	"bazaartrack/internal/server"
	"bazaartrack/logger"
	"bazaartrack/pkg/hypixel"
	"bazaartrack/pkg/storage/postgres"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env overrides are optional
	_ = godotenv.Load()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// Postgres snapshot store
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	feed := hypixel.NewClient(cfg.Hypixel.BaseURL, cfg.Hypixel.APIKey, cfg.Hypixel.Timeout)
	hub := stream.NewHub(log)

	// Periodic collection with live broadcast of each run
	c := collector.New(feed, store, log, cfg.Collector.Interval, cfg.Collector.FetchTimeout)
	c.SetPublisher(hub.Broadcast)
	c.Start(context.Background())
	log.Info("collector started",
		zap.Duration("interval", cfg.Collector.Interval),
		zap.String("feed", cfg.Hypixel.BaseURL))

	// Query API
	srv := server.New(analytics.New(store), hub, store.IsHealthy, log, cfg.Log.Environment)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
