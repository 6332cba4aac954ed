package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
	orderpg "github.com/dmehra2102/storefront-orders/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/storefront-orders/internal/testenv"
)

func TestRepository_GetProduct(t *testing.T) {
	pool := testenv.Postgres(t)
	require.NoError(t, orderpg.Migrate(pool))
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO products (id, name, price_cents, stock) VALUES ('A', 'Product A', 1099, 7)`)
	require.NoError(t, err)

	repo := NewRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), pool)

	p, err := repo.GetProduct(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Product A", p.Name)
	assert.Equal(t, "10.99", p.Price.StringFixed(2))
	assert.Equal(t, 7, p.Stock)

	_, err = repo.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
