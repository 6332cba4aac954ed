package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// querier is what a pool and a transaction have in common.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Repository struct {
	orderWriter
	log  *slog.Logger
	pool *pgxpool.Pool
}

var (
	_ application.Store         = (*Repository)(nil)
	_ application.CatalogReader = (*Repository)(nil)
)

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{orderWriter: orderWriter{q: pool}, log: log, pool: pool}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, w application.OrderWriter) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, orderWriter{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type orderWriter struct {
	q querier
}

func (w orderWriter) InsertOrder(ctx context.Context, o domain.Order) error {
	ct, err := w.q.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, email, phone, status,
			subtotal_cents, shipping_cents, tax_cents, total_cents,
			shipping_address, billing_address, payment_method, payment_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (order_number) DO NOTHING`,
		o.ID, o.OrderNumber, o.UserID, o.Email, o.Phone, string(o.Status),
		domain.Cents(o.Subtotal), domain.Cents(o.Shipping), domain.Cents(o.Tax), domain.Cents(o.Total),
		string(o.ShippingAddress), string(o.BillingAddress), o.PaymentMethod, string(o.PaymentStatus),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrDuplicateOrderNumber
	}
	return nil
}

// InsertLineItems writes all items in one batch; the first failing insert
// is reported.
func (w orderWriter) InsertLineItems(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(`INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price_cents, line_total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, item.OrderID, i, item.ProductID, item.Quantity,
			domain.Cents(item.UnitPrice), domain.Cents(item.LineTotal))
	}
	return w.q.SendBatch(ctx, batch).Close()
}

func (w orderWriter) DecrementStock(ctx context.Context, productID string, quantity int) error {
	ct, err := w.q.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStockShortfall
	}
	return nil
}

func (w orderWriter) ReadStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := w.q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ProductNotFound(productID)
	}
	return stock, err
}

func (w orderWriter) WriteStock(ctx context.Context, productID string, stock int) error {
	ct, err := w.q.Exec(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, productID, stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ProductNotFound(productID)
	}
	return nil
}

func (w orderWriter) RecordEvent(ctx context.Context, ev domain.Event) error {
	headers := ev.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	aggregateType := headers["aggregate_type"]
	if aggregateType == "" {
		aggregateType = domain.AggregateOrder
	}
	_, err := w.q.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		aggregateType, ev.AggregateID, ev.Type, ev.Payload, headers, ev.Traceparent)
	return err
}

func (r *Repository) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	var (
		p     domain.ProductSnapshot
		cents int64
	)
	err := r.pool.QueryRow(ctx, `SELECT id, name, price_cents, stock FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &cents, &p.AvailableStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProductSnapshot{}, domain.ProductNotFound(productID)
	}
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	p.UnitPrice = domain.FromCents(cents)
	return p, nil
}

// PutProduct upserts a catalog row. Used for seeding and tests.
func (r *Repository) PutProduct(ctx context.Context, p domain.ProductSnapshot) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, name, price_cents, stock) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name = $2, price_cents = $3, stock = $4, updated_at = now()`,
		p.ID, p.Name, domain.Cents(p.UnitPrice), p.AvailableStock)
	return err
}
