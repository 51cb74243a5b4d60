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

	"github.com/ariefcatur/go-restaurant-pos/internal/config"
	"github.com/ariefcatur/go-restaurant-pos/internal/httpx"
	kafkax "github.com/ariefcatur/go-restaurant-pos/internal/kafka"
	"github.com/ariefcatur/go-restaurant-pos/internal/logging"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/ariefcatur/go-restaurant-pos/internal/rabbitmq"
	"github.com/ariefcatur/go-restaurant-pos/internal/redisx"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/ariefcatur/go-restaurant-pos/internal/store"
	"github.com/ariefcatur/go-restaurant-pos/internal/store/memory"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// backend is what the API needs from a storage driver.
type backend interface {
	orders.UnitOfWork
	Snapshots() reports.SnapshotStore
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var db backend
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		db = memory.New()
	default:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		db = &store.Postgres{Pool: pool}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Fatal("redis ping", zap.Error(err))
	}
	statusCache := &redisx.StatusCache{RDB: rdb, Log: logger}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 1024, logger)
	prod.Start(ctx)

	notifiers := orders.Notifiers{
		statusCache,
		&orders.EventPublisher{Producer: prod, Service: cfg.ServiceName},
	}

	// RabbitMQ is optional: orders keep flowing without kitchen displays.
	kitchen, err := rabbitmq.Dial(cfg.RabbitURL, logger)
	if err != nil {
		logger.Warn("kitchen tickets disabled", zap.Error(err))
	} else {
		defer kitchen.Close()
		notifiers = append(notifiers, &orders.KitchenTickets{Publisher: kitchen, Log: logger})
	}

	engine := orders.NewEngine(db, notifiers, logger)
	router := httpx.NewRouter(httpx.Deps{
		Engine:  engine,
		Store:   db,
		Reports: reports.NewService(db.Stores().Orders(), db.Snapshots(), logger),
		Auth:    &redisx.Sessions{RDB: rdb},
		Log:     logger,
		Idem:    &redisx.Idempotency{RDB: rdb},
		Status:  statusCache,
		Dev:     cfg.Development(),
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop accepting, flush the rest
	cancel()
	prod.WaitClosed()
}
