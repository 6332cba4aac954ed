package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmehra2102/storefront-orders/internal/config"
	"github.com/dmehra2102/storefront-orders/internal/incident/application"
	incidenthttp "github.com/dmehra2102/storefront-orders/internal/incident/infrastructure/http"
	incidentkafka "github.com/dmehra2102/storefront-orders/internal/incident/infrastructure/kafka"
	incidentpg "github.com/dmehra2102/storefront-orders/internal/incident/infrastructure/postgres"
	"github.com/dmehra2102/storefront-orders/internal/order/infrastructure/auth"
	"github.com/dmehra2102/storefront-orders/pkg/idempotency"
	"github.com/dmehra2102/storefront-orders/pkg/logging"
	"github.com/dmehra2102/storefront-orders/pkg/shutdown"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

func main() {
	cfg, err := config.LoadIncidentService()
	log := logging.New(cfg.LogLevel, "incident-service")
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "incident-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if cfg.RunMigrations {
		if err := incidentpg.Migrate(pool); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	identity, err := auth.NewJWTProvider(cfg.JWTSecret, time.Hour)
	if err != nil {
		log.Error("identity provider init failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	repo := incidentpg.NewRepository(log, pool)
	svc := application.NewService(log, repo)
	reader := incidentkafka.NewReader(cfg.KafkaBrokers, cfg.Topic, cfg.ConsumerGroup)
	consumer := incidentkafka.NewConsumer(log, reader, svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(incidenthttp.NewHandler(log, repo, identity).Routes(), "incident-http"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	err = shutdown.Graceful(10*time.Second,
		srv.Shutdown,
		func(context.Context) error { return rdb.Close() },
		tp.Shutdown,
	)
	if err != nil {
		log.Error("shutdown incomplete", "err", err)
	}
	log.Info("incident-service shutdown")
}
