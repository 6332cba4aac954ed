package application

import (
	"context"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (domain.Identity, error)
}

// CatalogReader returns an error matching domain.ErrProductNotFound for
// unknown ids.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error)
}

// OrderWriter is the set of writes a placement performs. InsertOrder returns
// domain.ErrDuplicateOrderNumber when the number is taken and
// DecrementStock returns domain.ErrStockShortfall when stock is too low.
type OrderWriter interface {
	InsertOrder(ctx context.Context, o domain.Order) error
	InsertLineItems(ctx context.Context, items []domain.LineItem) error
	DecrementStock(ctx context.Context, productID string, quantity int) error
	ReadStock(ctx context.Context, productID string) (int, error)
	WriteStock(ctx context.Context, productID string, stock int) error
	RecordEvent(ctx context.Context, ev domain.Event) error
}

// Transactor runs fn against a writer whose effects commit together or not
// at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, w OrderWriter) error) error
}

type OrderReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error)
	// GetByNumber returns domain.ErrOrderNotFound when no order of userID
	// carries the number.
	GetByNumber(ctx context.Context, userID, orderNumber string) (domain.Order, error)
}

type Store interface {
	OrderWriter
	Transactor
	OrderReader
}
