package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Save(ctx context.Context, inc domain.Incident) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO order_incidents (id, event_key, kind, order_id, order_number, product_id, quantity, reason, payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (event_key) DO NOTHING`,
		inc.ID, inc.EventKey, string(inc.Kind), inc.OrderID, inc.OrderNumber, inc.ProductID, inc.Quantity, inc.Reason,
		[]byte(inc.Payload), inc.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert incident %s: %w", inc.EventKey, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpen returns unresolved incidents, oldest first.
func (r *Repository) ListOpen(ctx context.Context, limit int) ([]domain.Incident, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_key, kind, order_id, order_number, product_id, quantity, reason, payload, created_at
		FROM order_incidents
		WHERE resolved_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Incident, error) {
		var (
			inc  domain.Incident
			kind string
		)
		err := row.Scan(&inc.ID, &inc.EventKey, &kind, &inc.OrderID, &inc.OrderNumber, &inc.ProductID,
			&inc.Quantity, &inc.Reason, &inc.Payload, &inc.CreatedAt)
		inc.Kind = domain.Kind(kind)
		return inc, err
	})
}

// Resolve closes an incident once an operator has dealt with it.
func (r *Repository) Resolve(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE order_incidents SET resolved_at = now() WHERE id = $1 AND resolved_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}
