package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

// writeTransactional writes header, items, the OrderPlaced event and every
// stock decrement in one transaction. A product that no longer has enough
// stock rolls the whole order back.
func (s *Service) writeTransactional(ctx context.Context, o domain.Order, lines []domain.ValidatedLine) (Placement, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context, w OrderWriter) error {
		if err := s.insertHeader(ctx, w, &o); err != nil {
			return err
		}
		if err := s.bound(ctx, "order items write", func(ctx context.Context) error {
			return w.InsertLineItems(ctx, o.Items)
		}); err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.adjustStock(ctx, w, l); err != nil {
				if errors.Is(err, domain.ErrStockShortfall) {
					return domain.InsufficientStock(l.ProductID, l.ProductName)
				}
				return err
			}
		}
		ev, err := s.event(ctx, o.ID, domain.EventOrderPlaced, domain.OrderPlacedFrom(o))
		if err != nil {
			return err
		}
		return s.bound(ctx, "outbox write", func(ctx context.Context) error {
			return w.RecordEvent(ctx, ev)
		})
	})
	if err == nil {
		return Placement{Order: o}, nil
	}

	switch domain.KindOf(err) {
	case domain.KindInsufficientStock:
		s.log.Info("order rolled back on stock shortfall", "order_id", o.ID, "err", err)
		return Placement{}, err
	case domain.KindUpstreamUnavailable:
		s.log.Error("order write timed out", "order_id", o.ID, "err", err)
		return Placement{}, err
	}
	s.log.Error("order write failed", "order_id", o.ID, "err", err)
	return Placement{}, domain.OrderPersistFailure(err)
}

// writeSequential writes header, items and each stock change as separate
// operations. A header that was written stays even when the items fail;
// failed stock changes become warnings on an otherwise successful result.
func (s *Service) writeSequential(ctx context.Context, o domain.Order, lines []domain.ValidatedLine) (Placement, error) {
	if err := s.insertHeader(ctx, s.store, &o); err != nil {
		s.log.Error("order header write failed", "order_id", o.ID, "err", err)
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return Placement{}, err
		}
		return Placement{}, domain.OrderPersistFailure(err)
	}

	if err := s.bound(ctx, "order items write", func(ctx context.Context) error {
		return s.store.InsertLineItems(ctx, o.Items)
	}); err != nil {
		s.log.Error("order saved without line items",
			"order_id", o.ID,
			"order_number", o.OrderNumber,
			"items", len(o.Items),
			"err", err,
		)
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			_ = s.recordBestEffort(ctx, o.ID, domain.EventLineItemsMissing, domain.LineItemsMissing{
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				ItemCount:   len(o.Items),
				Reason:      err.Error(),
			})
		}
		return Placement{}, domain.LineItemPersistFailure(o.ID, o.OrderNumber, err)
	}

	var (
		warnings []*domain.Error
		aborted  error
	)
	// No stock write follows a timed-out outbox write. Every line is then
	// reported as not adjusted.
	if err := s.recordBestEffort(ctx, o.ID, domain.EventOrderPlaced, domain.OrderPlacedFrom(o)); errors.Is(err, domain.ErrUpstreamUnavailable) {
		aborted = err
	}
	for _, l := range lines {
		err := aborted
		if err == nil {
			err = s.adjustStock(ctx, s.store, l)
		}
		if err == nil {
			continue
		}
		warnings = append(warnings, domain.StockAdjustmentFailure(o.ID, l.ProductID, err))
		s.log.Error("stock adjustment failed",
			"order_id", o.ID,
			"order_number", o.OrderNumber,
			"product_id", l.ProductID,
			"quantity", l.Quantity,
			"err", err,
		)
		if aborted != nil {
			continue
		}
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			aborted = err
			continue
		}
		rerr := s.recordBestEffort(ctx, o.ID, domain.EventStockAdjustmentFailed, domain.StockAdjustmentFailed{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Reason:      err.Error(),
		})
		if errors.Is(rerr, domain.ErrUpstreamUnavailable) {
			aborted = rerr
		}
	}
	return Placement{Order: o, Warnings: warnings}, nil
}

// insertHeader writes the order header, drawing a fresh order number when
// the store reports the current one as taken.
func (s *Service) insertHeader(ctx context.Context, w OrderWriter, o *domain.Order) error {
	for attempt := 1; ; attempt++ {
		err := s.bound(ctx, "order header write", func(ctx context.Context) error {
			return w.InsertOrder(ctx, *o)
		})
		if err == nil || !errors.Is(err, domain.ErrDuplicateOrderNumber) || attempt == maxOrderNumberAttempts {
			return err
		}
		s.log.Warn("order number taken, regenerating", "order_number", o.OrderNumber, "attempt", attempt)
		number, nerr := s.numbers.Next()
		if nerr != nil {
			return nerr
		}
		o.OrderNumber = number
	}
}

func (s *Service) adjustStock(ctx context.Context, w OrderWriter, l domain.ValidatedLine) error {
	if s.cfg.StockPolicy != StockReadThenWrite {
		return s.bound(ctx, "stock write", func(ctx context.Context) error {
			return w.DecrementStock(ctx, l.ProductID, l.Quantity)
		})
	}

	var stock int
	if err := s.bound(ctx, "stock read", func(ctx context.Context) error {
		var err error
		stock, err = w.ReadStock(ctx, l.ProductID)
		return err
	}); err != nil {
		return err
	}
	return s.bound(ctx, "stock write", func(ctx context.Context) error {
		return w.WriteStock(ctx, l.ProductID, stock-l.Quantity)
	})
}

func (s *Service) event(ctx context.Context, orderID, eventType string, body any) (domain.Event, error) {
	ev, err := domain.NewEvent(orderID, eventType, body)
	if err != nil {
		return domain.Event{}, err
	}
	ev.Headers = map[string]string{"aggregate_type": domain.AggregateOrder}
	ev.Traceparent = tracing.Traceparent(ctx)
	return ev, nil
}

// recordBestEffort writes an outbox event and logs a failure. The error is
// returned so callers can stop after a timeout.
func (s *Service) recordBestEffort(ctx context.Context, orderID, eventType string, body any) error {
	ev, err := s.event(ctx, orderID, eventType, body)
	if err == nil {
		err = s.bound(ctx, "outbox write", func(ctx context.Context) error {
			return s.store.RecordEvent(ctx, ev)
		})
	}
	if err != nil {
		s.log.Warn("order event not recorded", "order_id", orderID, "type", eventType, "err", err)
	}
	return err
}
