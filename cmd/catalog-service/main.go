package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-orders/internal/catalog/application"
	catalogrpc "github.com/dmehra2102/storefront-orders/internal/catalog/infrastructure/grpc"
	catalogpg "github.com/dmehra2102/storefront-orders/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/storefront-orders/internal/config"
	"github.com/dmehra2102/storefront-orders/pkg/logging"
	"github.com/dmehra2102/storefront-orders/pkg/shutdown"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

func main() {
	cfg, err := config.LoadCatalogService()
	log := logging.New(cfg.LogLevel, "catalog-service")
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "catalog-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := application.NewService(log, catalogpg.NewRepository(log, pool))
	gs, err := catalogrpc.Run(log, cfg.GRPCAddr, catalogrpc.NewServer(log, svc))
	if err != nil {
		log.Error("grpc server failed", "err", err)
		os.Exit(1)
	}
	log.Info("grpc listening", "addr", cfg.GRPCAddr)

	<-ctx.Done()
	gs.GracefulStop()
	log.Info("catalog-service shutdown")
}
