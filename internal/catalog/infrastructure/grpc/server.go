package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/storefront-orders/internal/catalog/domain"
	"github.com/dmehra2102/storefront-orders/internal/catalog/infrastructure/grpc/catalogv1"
)

type ProductService interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type Server struct {
	log *slog.Logger
	svc ProductService
}

func NewServer(log *slog.Logger, svc ProductService) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) GetProduct(ctx context.Context, req *catalogv1.GetProductRequest) (*catalogv1.GetProductResponse, error) {
	p, err := s.svc.GetProduct(ctx, req.ID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrProductNotFound):
		return nil, status.Errorf(codes.NotFound, "product %q not found", req.ID)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &catalogv1.GetProductResponse{Product: &catalogv1.Product{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price.StringFixed(2),
		Stock: int32(p.Stock),
	}}, nil
}

// NewGRPCServer returns a traced gRPC server with the catalog registered.
func NewGRPCServer(srv *Server) *grpc.Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	catalogv1.RegisterCatalogServer(gs, srv)
	return gs
}

func Run(log *slog.Logger, addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := NewGRPCServer(srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			log.Error("grpc serve stopped", "err", err)
		}
	}()
	return gs, nil
}
