package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	CatalogDirect = "direct"
	CatalogGRPC   = "grpc"
)

type OrderService struct {
	Common
	HTTPAddr         string
	StoreDriver      string
	RunMigrations    bool
	KafkaBrokers     []string
	OutboxTopic      string
	OutboxMaxRetries int
	JWTSecret        string
	CatalogMode      string
	CatalogAddr      string
	// SeedFile optionally names a JSON product list loaded at startup.
	SeedFile  string
	Placement application.Config
}

func LoadOrderService() (OrderService, error) {
	c := OrderService{
		Common:       loadCommon(),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		StoreDriver:  env("STORE_DRIVER", StoreDriverPostgres),
		KafkaBrokers: envList("KAFKA_ADDR", "localhost:9092"),
		OutboxTopic:  env("OUTBOX_TOPIC", "order.events"),
		JWTSecret:    env("JWT_SECRET", ""),
		CatalogMode:  env("CATALOG_MODE", CatalogDirect),
		CatalogAddr:  env("CATALOG_ADDR", "localhost:50051"),
		SeedFile:     env("SEED_FILE", ""),
		Placement:    application.DefaultConfig(),
	}
	var err error
	if c.RunMigrations, err = envBool("RUN_MIGRATIONS", true); err != nil {
		return c, err
	}
	if c.OutboxMaxRetries, err = envInt("OUTBOX_MAX_RETRIES", 5); err != nil {
		return c, err
	}

	p := &c.Placement
	if p.CallTimeout, err = envDuration("CALL_TIMEOUT", application.DefaultCallTimeout); err != nil {
		return c, err
	}
	p.WriteMode = application.WriteMode(env("ORDER_WRITE_MODE", string(application.WriteTransactional)))
	p.StockPolicy = application.StockPolicy(env("STOCK_DECREMENT", string(application.StockConditional)))
	p.OrderNumberPrefix = env("ORDER_NUMBER_PREFIX", domain.DefaultOrderNumberPrefix)
	if p.Pricing.FreeShippingThreshold, err = envDecimal("FREE_SHIPPING_THRESHOLD", domain.DefaultFreeShippingThreshold); err != nil {
		return c, err
	}
	if p.Pricing.ShippingFee, err = envDecimal("SHIPPING_FEE", domain.DefaultShippingFee); err != nil {
		return c, err
	}
	if p.Pricing.TaxRate, err = envDecimal("TAX_RATE", domain.DefaultTaxRate); err != nil {
		return c, err
	}

	return c, c.validate()
}

func (c OrderService) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	switch c.CatalogMode {
	case CatalogDirect, CatalogGRPC:
	default:
		return fmt.Errorf("CATALOG_MODE: unknown mode %q", c.CatalogMode)
	}
	if c.StoreDriver == StoreDriverMemory && c.CatalogMode == CatalogGRPC {
		// The catalog service reads Postgres stock while decrements would hit the in-memory map.
		return errors.New("CATALOG_MODE=grpc requires STORE_DRIVER=postgres")
	}
	if c.OutboxMaxRetries < 0 {
		return errors.New("OUTBOX_MAX_RETRIES must not be negative")
	}
	return c.Placement.Validate()
}

type CatalogService struct {
	Common
	GRPCAddr string
}

func LoadCatalogService() (CatalogService, error) {
	return CatalogService{
		Common:   loadCommon(),
		GRPCAddr: env("GRPC_ADDR", ":50051"),
	}, nil
}

type IncidentService struct {
	Common
	HTTPAddr       string
	RunMigrations  bool
	KafkaBrokers   []string
	Topic          string
	ConsumerGroup  string
	RedisAddr      string
	IdempotencyTTL time.Duration
	JWTSecret      string
}

func LoadIncidentService() (IncidentService, error) {
	c := IncidentService{
		Common:        loadCommon(),
		HTTPAddr:      env("HTTP_ADDR", ":8081"),
		KafkaBrokers:  envList("KAFKA_ADDR", "localhost:9092"),
		Topic:         env("OUTBOX_TOPIC", "order.events"),
		ConsumerGroup: env("CONSUMER_GROUP", "incident-service"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		JWTSecret:     env("JWT_SECRET", ""),
	}
	var err error
	if c.RunMigrations, err = envBool("RUN_MIGRATIONS", true); err != nil {
		return c, err
	}
	if c.IdempotencyTTL, err = envDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return c, err
	}
	if c.JWTSecret == "" {
		return c, errors.New("JWT_SECRET is required")
	}
	return c, nil
}
