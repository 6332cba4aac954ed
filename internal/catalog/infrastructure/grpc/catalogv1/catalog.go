// Package catalogv1 is the wire contract of the catalog service: one unary
// method, JSON encoded.
package catalogv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName      = "catalog.v1.Catalog"
	GetProductMethod = "/catalog.v1.Catalog/GetProduct"
)

type GetProductRequest struct {
	ID string `json:"id"`
}

// Product carries the price as a decimal string, e.g. "10.00".
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int32  `json:"stock"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type CatalogServer interface {
	GetProduct(ctx context.Context, req *GetProductRequest) (*GetProductResponse, error)
}

type CatalogClient interface {
	GetProduct(ctx context.Context, req *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error)
}

type catalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) CatalogClient {
	return &catalogClient{cc: cc}
}

func (c *catalogClient) GetProduct(ctx context.Context, req *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error) {
	out := new(GetProductResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, GetProductMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetProduct(ctx, req.(*GetProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.json",
}
