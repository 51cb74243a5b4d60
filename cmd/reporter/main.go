package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-restaurant-pos/internal/config"
	kafkax "github.com/ariefcatur/go-restaurant-pos/internal/kafka"
	"github.com/ariefcatur/go-restaurant-pos/internal/logging"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/ariefcatur/go-restaurant-pos/internal/redisx"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StorageDriver != "postgres" {
		log.Fatalf("reporter needs the postgres storage driver, got %q", cfg.StorageDriver)
	}
	service := cfg.ServiceName + "-reporter"
	logger, err := logging.New(service, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Fatal("redis ping", zap.Error(err))
	}

	svc := reports.NewService(&orders.Repo{DB: pool}, &reports.Repo{DB: pool}, logger)
	consumer := &reports.Consumer{
		Service: svc,
		Dedup:   &redisx.Dedup{RDB: rdb, Service: "reporter"},
		Log:     logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReporterGroup, cfg.KafkaTopic, cfg.ReporterWorkers, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("reporter consumer started",
			zap.String("group", cfg.ReporterGroup),
			zap.String("topic", cfg.KafkaTopic),
			zap.Int("workers", cfg.ReporterWorkers))
		if err := cons.Start(ctx, consumer.HandleOrderEvent); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer")
	cancel()
	<-done
}
