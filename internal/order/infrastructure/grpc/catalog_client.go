package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/storefront-orders/internal/catalog/infrastructure/grpc/catalogv1"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

const (
	breakerTripAfter = 5
	breakerOpenFor   = 10 * time.Second
)

// CatalogClient reads products from the catalog service behind a circuit
// breaker.
type CatalogClient struct {
	log  *slog.Logger
	cc   catalogv1.CatalogClient
	cb   *gobreaker.CircuitBreaker[*catalogv1.GetProductResponse]
	conn *grpc.ClientConn
}

func NewCatalogClient(log *slog.Logger, addr string) (*CatalogClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, err
	}
	c := NewCatalogClientFromConn(log, conn)
	c.conn = conn
	return c, nil
}

func NewCatalogClientFromConn(log *slog.Logger, cc grpc.ClientConnInterface) *CatalogClient {
	cb := gobreaker.NewCircuitBreaker[*catalogv1.GetProductResponse](gobreaker.Settings{
		Name:    "catalog",
		Timeout: breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// an unknown product is a valid answer
		IsSuccessful: func(err error) bool {
			return err == nil || status.Code(err) == codes.NotFound
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &CatalogClient{log: log, cc: catalogv1.NewCatalogClient(cc), cb: cb}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	resp, err := c.cb.Execute(func() (*catalogv1.GetProductResponse, error) {
		return c.cc.GetProduct(ctx, &catalogv1.GetProductRequest{ID: productID})
	})
	if err != nil {
		return domain.ProductSnapshot{}, mapError(productID, err)
	}
	if resp.Product == nil {
		return domain.ProductSnapshot{}, domain.ProductNotFound(productID)
	}

	price, err := decimal.NewFromString(resp.Product.Price)
	if err != nil {
		return domain.ProductSnapshot{}, domain.UpstreamUnavailable("catalog", fmt.Errorf("price %q: %w", resp.Product.Price, err))
	}
	return domain.ProductSnapshot{
		ID:             resp.Product.ID,
		Name:           resp.Product.Name,
		UnitPrice:      price,
		AvailableStock: int(resp.Product.Stock),
	}, nil
}

func (c *CatalogClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func mapError(productID string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.UpstreamUnavailable("catalog", err)
	}
	if status.Code(err) == codes.NotFound {
		return domain.ProductNotFound(productID)
	}
	return domain.UpstreamUnavailable("catalog", err)
}
