package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// Placement is a successfully placed order.
type Placement struct {
	Order domain.Order
	// Warnings lists stock changes that did not apply. The order itself
	// stands; each warning needs operator follow-up.
	Warnings []*domain.Error
}

// PlaceOrder resolves the caller, checks the request, validates the cart
// against the catalog, prices it and writes the order. Each failure is
// reported once and nothing is retried, except regenerating a taken order
// number.
func (s *Service) PlaceOrder(ctx context.Context, credential string, req domain.PlacementRequest) (Placement, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("order.lines", len(req.Items)))

	p, err := s.placeOrder(ctx, credential, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		return Placement{}, err
	}
	span.SetAttributes(
		attribute.String("order.id", p.Order.ID),
		attribute.String("order.number", p.Order.OrderNumber),
		attribute.Int("order.warnings", len(p.Warnings)),
	)
	return p, nil
}

func (s *Service) placeOrder(ctx context.Context, credential string, req domain.PlacementRequest) (Placement, error) {
	who, err := s.authenticate(ctx, credential)
	if err != nil {
		return Placement{}, err
	}
	if err := req.Validate(); err != nil {
		return Placement{}, err
	}

	lines, err := s.validateInventory(ctx, req.Items)
	if err != nil {
		s.log.Info("cart rejected", "user_id", who.UserID, "kind", domain.KindOf(err), "product_id", productOf(err))
		return Placement{}, err
	}
	totals := s.cfg.Pricing.Calculate(lines)

	number, err := s.numbers.Next()
	if err != nil {
		return Placement{}, domain.OrderPersistFailure(err)
	}
	order := domain.NewOrder(s.newID(), number, who, req, lines, totals, s.newID, s.now())

	var p Placement
	if s.cfg.WriteMode == WriteSequential {
		p, err = s.writeSequential(ctx, order, lines)
	} else {
		p, err = s.writeTransactional(ctx, order, lines)
	}
	if err != nil {
		return Placement{}, err
	}

	s.log.Info("order placed",
		"order_id", p.Order.ID,
		"order_number", p.Order.OrderNumber,
		"user_id", who.UserID,
		"total", p.Order.Total.StringFixed(2),
		"warnings", len(p.Warnings),
	)
	return p, nil
}

func productOf(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.ProductID
	}
	return ""
}
