package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// validateInventory checks the lines left to right against the catalog and
// stops at the first unknown product or shortage. Nothing is reserved: the
// stock seen here can be gone by the time the order is written.
func (s *Service) validateInventory(ctx context.Context, lines []domain.CartLine) ([]domain.ValidatedLine, error) {
	if len(lines) == 0 {
		return nil, domain.EmptyCart()
	}
	validated := make([]domain.ValidatedLine, 0, len(lines))
	for _, line := range lines {
		var p domain.ProductSnapshot
		err := s.bound(ctx, "catalog", func(ctx context.Context) error {
			var err error
			p, err = s.catalog.GetProduct(ctx, line.ProductID)
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrProductNotFound):
			return nil, domain.ProductNotFound(line.ProductID)
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return nil, err
		default:
			return nil, domain.UpstreamUnavailable("catalog", err)
		}

		if p.AvailableStock < line.Quantity {
			return nil, domain.InsufficientStock(line.ProductID, p.Name)
		}
		validated = append(validated, domain.NewValidatedLine(p, line.Quantity))
	}
	return validated, nil
}
