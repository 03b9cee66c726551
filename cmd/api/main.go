package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/grocerly/go-checkout/internal/audit"
	"github.com/grocerly/go-checkout/internal/checkout"
	"github.com/grocerly/go-checkout/internal/config"
	"github.com/grocerly/go-checkout/internal/httpx"
	kafkax "github.com/grocerly/go-checkout/internal/kafka"
	"github.com/grocerly/go-checkout/internal/postgres"
	"github.com/grocerly/go-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.ApplySchema(ctx, db); err != nil {
		slog.Error("apply schema", "err", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka audit producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic, 1024)
	prod.Start(ctx)
	sink := &audit.KafkaSink{Producer: prod, Service: cfg.ServiceName}

	// Orchestrator
	repo := &checkout.Repo{}
	svc := &checkout.Service{
		DB:          db,
		Carts:       repo,
		Resolver:    &checkout.BranchResolver{Branches: repo, DeliverySourceBranchID: cfg.DeliverySourceBranchID},
		Inventory:   repo,
		Idempotency: repo,
		Orders:      repo,
		Tokens:      repo,
		Charger:     &checkout.MockPayCharger{Tokens: repo},
		Audit:       sink,

		DeliveryMinTotal:    cfg.DeliveryMinTotal,
		DeliveryFeeUnderMin: cfg.DeliveryFeeUnderMin,
		PaymentTimeout:      cfg.PaymentTimeout,
	}

	router := httpx.NewRouter()
	ch := &httpx.CheckoutHandler{Service: svc, Redis: rdb}
	ch.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop accepting, flush remaining audit events
	prod.WaitClosed() // drain
}
