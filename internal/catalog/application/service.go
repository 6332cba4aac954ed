package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
)

type Service struct {
	log    *slog.Logger
	repo   ProductRepository
	tracer trace.Tracer
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo, tracer: otel.Tracer("catalog-application")}
}

// GetProduct returns the product as currently stored. Blank ids are never
// found.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if strings.TrimSpace(id) == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.log.Error("product read failed", "product_id", id, "err", err)
			span.RecordError(err)
		}
		return domain.Product{}, err
	}
	return p, nil
}
