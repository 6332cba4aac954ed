package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

const orderColumns = `id, order_number, user_id, email, phone, status,
	subtotal_cents, shipping_cents, tax_cents, total_cents,
	shipping_address, billing_address, payment_method, payment_status, created_at, updated_at`

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	return orders, r.attachItems(ctx, orders)
}

// ListAll is the back-office listing. LIMIT NULL means no limit.
func (r *Repository) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT NULLIF($2::int, 0)`, string(filter.Status), filter.Limit)
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	return orders, r.attachItems(ctx, orders)
}

func (r *Repository) GetByNumber(ctx context.Context, userID, orderNumber string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1 AND user_id = $2`, orderNumber, userID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.OrderNotFound(orderNumber)
	}
	if err != nil {
		return domain.Order{}, err
	}
	orders := []domain.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                               domain.Order
		status, paymentStatus           string
		subtotal, shipping, tax, total  int64
		shippingAddress, billingAddress string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Email, &o.Phone, &status,
		&subtotal, &shipping, &tax, &total,
		&shippingAddress, &billingAddress, &o.PaymentMethod, &paymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.Subtotal = domain.FromCents(subtotal)
	o.Shipping = domain.FromCents(shipping)
	o.Tax = domain.FromCents(tax)
	o.Total = domain.FromCents(total)
	o.ShippingAddress = json.RawMessage(shippingAddress)
	o.BillingAddress = json.RawMessage(billingAddress)
	return o, nil
}

// attachItems loads the items of all given orders in one query, each with
// the product as it is now.
func (r *Repository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[string]int, len(orders))
	ids := make([]string, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids = append(ids, o.ID)
		orders[i].Items = []domain.LineItem{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price_cents, i.line_total_cents,
			p.name, p.price_cents, p.stock
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it              domain.LineItem
			unit, lineTotal int64
			name            *string
			price           *int64
			stock           *int
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &unit, &lineTotal, &name, &price, &stock); err != nil {
			return err
		}
		it.UnitPrice = domain.FromCents(unit)
		it.LineTotal = domain.FromCents(lineTotal)
		if name != nil && price != nil && stock != nil {
			it.Product = &domain.ProductSnapshot{
				ID:             it.ProductID,
				Name:           *name,
				UnitPrice:      domain.FromCents(*price),
				AvailableStock: *stock,
			}
		}
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}
