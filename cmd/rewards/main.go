package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/config"
	kafkax "github.com/dotcomdgadgets/dotcombackend/internal/kafka"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/postgres"
	"github.com/dotcomdgadgets/dotcombackend/internal/redisx"
	"github.com/dotcomdgadgets/dotcombackend/internal/rewards"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &rewards.Service{
		Ledger:      &rewards.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-rewards",
		Logger:      logger,
	}

	group := getenv("REWARDS_GROUP", "rewards-svc")
	workers := mustAtoi(os.Getenv("REWARDS_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		logger.Info("rewards consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicOrderCreated),
			zap.Int("workers", workers),
		)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer")
	cancel()
}
