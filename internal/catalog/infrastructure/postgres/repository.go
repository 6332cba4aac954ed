package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
)

// Repository reads the products table the order service decrements. The
// schema is owned by the order service migrations.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var (
		p     domain.Product
		cents int64
	)
	err := r.pool.QueryRow(ctx, `SELECT id, name, price_cents, stock FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &cents, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product %s: %w", id, err)
	}
	p.Price = decimal.New(cents, -2)
	return p, nil
}
