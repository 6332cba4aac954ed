package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
)

type mapRepo map[string]domain.Product

func (m mapRepo) GetProduct(_ context.Context, id string) (domain.Product, error) {
	if id == "broken" {
		return domain.Product{}, errors.New("connection reset")
	}
	p, ok := m[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func TestService_GetProduct(t *testing.T) {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), mapRepo{
		"A": {ID: "A", Name: "Product A", Price: decimal.RequireFromString("10.00"), Stock: 5},
	})
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	_, err = svc.GetProduct(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.GetProduct(ctx, "Z")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.GetProduct(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}
