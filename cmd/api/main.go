package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/addresses"
	"github.com/dotcomdgadgets/dotcombackend/internal/auth"
	"github.com/dotcomdgadgets/dotcombackend/internal/cart"
	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
	"github.com/dotcomdgadgets/dotcombackend/internal/config"
	"github.com/dotcomdgadgets/dotcombackend/internal/httpx"
	kafkax "github.com/dotcomdgadgets/dotcombackend/internal/kafka"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
	"github.com/dotcomdgadgets/dotcombackend/internal/postgres"
	"github.com/dotcomdgadgets/dotcombackend/internal/redisx"
)

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

	// Kafka producers, one per topic
	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	createdProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	statusProd.Start(ctx)

	// Repos & stores
	catalogRepo := &catalog.Repo{DB: db}
	addressRepo := &addresses.Repo{DB: db}
	cartStore := &cart.Store{Redis: rdb}
	orderRepo := &orders.Repo{DB: db}
	paymentLog := &payments.LogRepo{DB: db}

	verifier := &payments.Verifier{
		Secret: []byte(cfg.GatewayKeySecret),
		Log:    paymentLog,
		Logger: logger,
	}
	gateway := payments.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)

	svc := &orders.Service{
		Addresses:     addressRepo,
		Cart:          cartStore,
		Catalog:       catalogRepo,
		Store:         orderRepo,
		Verifier:      verifier,
		CreatedEvents: createdProd,
		StatusEvents:  statusProd,
		ServiceName:   cfg.ServiceName,
		Logger:        logger,
	}

	// Router & handlers
	authmw := &auth.Middleware{Secret: []byte(cfg.JWTSecret)}
	router := httpx.NewRouter()

	(&httpx.OrdersHandler{Service: svc, Redis: rdb, Auth: authmw, Logger: logger}).Register(router)
	(&httpx.PaymentsHandler{Gateway: gateway, Service: svc, Auth: authmw, Logger: logger}).Register(router)
	(&httpx.CartHandler{Cart: cartStore, Catalog: catalogRepo, Auth: authmw, Logger: logger}).Register(router)
	(&httpx.CatalogHandler{Catalog: catalogRepo, Auth: authmw, Logger: logger}).Register(router)
	(&httpx.AddressesHandler{Addresses: addressRepo, Auth: authmw, Logger: logger}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	createdProd.Close()
	statusProd.Close()
	cancel()
	createdProd.WaitClosed()
	statusProd.WaitClosed()
}
