package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/config"
	"github.com/summit-games/summit-indexer/internal/delivery"
	"github.com/summit-games/summit-indexer/internal/logger"
	"github.com/summit-games/summit-indexer/internal/metadata"
	"github.com/summit-games/summit-indexer/internal/processor"
	"github.com/summit-games/summit-indexer/internal/reconcile"
	"github.com/summit-games/summit-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Summit Indexer")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("dsn", cfg.Database.DSN()))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()
	natsJS := adapter.NewNatsJetStream()
	httpClient := adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout)

	// Create the reconciliation engine and block processor
	metadataClient := metadata.NewClient(httpClient, cfg.Metadata.BaseURL)
	engine := reconcile.NewEngine(dataStore, jsonAdapter, clock)
	blockProcessor, err := processor.NewProcessor(
		processor.Config{
			BeastContract:        cfg.Contracts.BeastContract,
			GameContract:         cfg.Contracts.GameContract,
			DungeonEventContract: cfg.Contracts.DungeonEventContract,
			Dungeon:              cfg.Contracts.Dungeon,
			MetadataCacheSize:    cfg.Metadata.CacheSize,
		},
		dataStore,
		engine,
		metadataClient,
		jsonAdapter,
		clock,
	)
	if err != nil {
		logger.Fatal("Failed to create block processor", zap.Error(err))
	}

	// Create the block feed consumer
	blockConsumer, err := delivery.NewConsumer(
		delivery.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			Subject:        cfg.NATS.Subject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		},
		natsJS,
		blockProcessor,
		jsonAdapter,
	)
	if err != nil {
		logger.Fatal("Failed to create block consumer", zap.Error(err))
	}
	defer blockConsumer.Close()
	logger.Info("Block consumer created", zap.String("stream", cfg.NATS.StreamName), zap.String("consumer", cfg.NATS.ConsumerName))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for consumer errors
	errCh := make(chan error, 1)

	// Start the consumer
	go func() {
		if err := blockConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "consumer"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Summit Indexer stopped")
}
