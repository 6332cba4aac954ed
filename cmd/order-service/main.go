package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmehra2102/storefront-orders/internal/config"
	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
	"github.com/dmehra2102/storefront-orders/internal/order/infrastructure/auth"
	ordergrpc "github.com/dmehra2102/storefront-orders/internal/order/infrastructure/grpc"
	orderhttp "github.com/dmehra2102/storefront-orders/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/storefront-orders/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/storefront-orders/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/storefront-orders/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/storefront-orders/pkg/logging"
	"github.com/dmehra2102/storefront-orders/pkg/outbox"
	"github.com/dmehra2102/storefront-orders/pkg/shutdown"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

const sessionTTL = 24 * time.Hour

func main() {
	cfg, err := config.LoadOrderService()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, "order-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	identity, err := auth.NewJWTProvider(cfg.JWTSecret, sessionTTL)
	if err != nil {
		log.Error("identity provider init failed", "err", err)
		os.Exit(1)
	}

	closers := []shutdown.Closer{tp.Shutdown}

	var (
		store   application.Store
		catalog application.CatalogReader
		put     func(context.Context, domain.ProductSnapshot) error
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memory.New()
		store, catalog = mem, mem
		put = func(_ context.Context, p domain.ProductSnapshot) error {
			mem.PutProduct(p)
			return nil
		}
		log.Warn("using in-memory store, orders are lost on restart")
	default:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if cfg.RunMigrations {
			if err := orderpg.Migrate(pool); err != nil {
				log.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}
		repo := orderpg.NewRepository(log, pool)
		store, catalog, put = repo, repo, repo.PutProduct

		writer := orderkafka.NewWriter(cfg.KafkaBrokers)
		closers = append(closers, func(context.Context) error { return writer.Close() })
		dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
		relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool, cfg.OutboxMaxRetries), dispatch, relayID())
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	if cfg.SeedFile != "" {
		n, err := loadSeed(ctx, cfg.SeedFile, put)
		if err != nil {
			log.Error("seed failed", "err", err)
			os.Exit(1)
		}
		log.Info("catalog seeded", "products", n)
	}

	if cfg.CatalogMode == config.CatalogGRPC {
		client, err := ordergrpc.NewCatalogClient(log, cfg.CatalogAddr)
		if err != nil {
			log.Error("catalog client init failed", "err", err)
			os.Exit(1)
		}
		closers = append(closers, func(context.Context) error { return client.Close() })
		catalog = client
	}

	svc := application.NewService(log, identity, catalog, store, cfg.Placement)
	handler := orderhttp.NewHandler(log, svc)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(handler.Routes(), "order-http"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr,
			"store", cfg.StoreDriver, "catalog", cfg.CatalogMode, "write_mode", cfg.Placement.WriteMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	closers = append([]shutdown.Closer{srv.Shutdown}, closers...)
	if err := shutdown.Graceful(10*time.Second, closers...); err != nil {
		log.Error("shutdown incomplete", "err", err)
	}
	log.Info("order-service shutdown complete")
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "order-service-relay"
	}
	return "order-service-relay-" + host
}
