package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
)

func TestLoadOrderService_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	c, err := LoadOrderService()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, StoreDriverPostgres, c.StoreDriver)
	assert.Equal(t, CatalogDirect, c.CatalogMode)
	assert.True(t, c.RunMigrations)
	assert.Equal(t, []string{"localhost:9092"}, c.KafkaBrokers)
	assert.Equal(t, application.DefaultConfig(), c.Placement)
}

func TestLoadOrderService_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092")
	t.Setenv("CALL_TIMEOUT", "750ms")
	t.Setenv("ORDER_WRITE_MODE", "sequential")
	t.Setenv("STOCK_DECREMENT", "read-then-write")
	t.Setenv("ORDER_NUMBER_PREFIX", "SHOP")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "75")
	t.Setenv("SHIPPING_FEE", "4.50")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("RUN_MIGRATIONS", "false")

	c, err := LoadOrderService()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, c.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.False(t, c.RunMigrations)
	assert.Equal(t, 750*time.Millisecond, c.Placement.CallTimeout)
	assert.Equal(t, application.WriteSequential, c.Placement.WriteMode)
	assert.Equal(t, application.StockReadThenWrite, c.Placement.StockPolicy)
	assert.Equal(t, "SHOP", c.Placement.OrderNumberPrefix)
	assert.Equal(t, "75", c.Placement.Pricing.FreeShippingThreshold.String())
	assert.Equal(t, "4.5", c.Placement.Pricing.ShippingFee.String())
	assert.Equal(t, "0.1", c.Placement.Pricing.TaxRate.String())
}

func TestLoadOrderService_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"bad driver":     {"STORE_DRIVER": "mysql"},
		"bad catalog":    {"CATALOG_MODE": "rest"},
		"bad mode":       {"ORDER_WRITE_MODE": "eventual"},
		"bad policy":     {"STOCK_DECREMENT": "optimistic"},
		"bad timeout":    {"CALL_TIMEOUT": "soon"},
		"bad tax":        {"TAX_RATE": "1.5"},
		"bad fee":        {"SHIPPING_FEE": "abc"},
		"bad bool":       {"RUN_MIGRATIONS": "maybe"},
		"grpc on memory": {"STORE_DRIVER": "memory", "CATALOG_MODE": "grpc"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadOrderService()
			assert.Error(t, err)
		})
	}
}

func TestLoadIncidentService(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	c, err := LoadIncidentService()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, c.IdempotencyTTL)
	assert.Equal(t, "incident-service", c.ConsumerGroup)
	assert.Equal(t, "order.events", c.Topic)

	t.Setenv("JWT_SECRET", "")
	_, err = LoadIncidentService()
	assert.Error(t, err)
}
