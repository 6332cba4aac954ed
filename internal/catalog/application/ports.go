package application

import (
	"context"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}
