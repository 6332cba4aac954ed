package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// bound runs one external call under the configured timeout. A call that
// runs out of time is reported as UpstreamUnavailable.
func (s *Service) bound(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.cfg.CallTimeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	err := fn(cctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return domain.UpstreamUnavailable(op, err)
	}
	return err
}
