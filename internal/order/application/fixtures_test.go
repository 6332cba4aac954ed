package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
	"github.com/dmehra2102/storefront-orders/internal/order/infrastructure/memory"
)

const (
	buyerToken = "token-buyer"
	otherToken = "token-other"
	adminToken = "token-admin"
)

type staticIdentity map[string]domain.Identity

func (m staticIdentity) Resolve(_ context.Context, credential string) (domain.Identity, error) {
	id, ok := m[credential]
	if !ok {
		return domain.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

var identities = staticIdentity{
	buyerToken: {UserID: "user-1", Email: "buyer@example.com", Role: domain.RoleCustomer},
	otherToken: {UserID: "user-2", Email: "other@example.com", Role: domain.RoleCustomer},
	adminToken: {UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededStore holds product A (10.00, stockA) and product B (8.00, stockB).
func seededStore(stockA, stockB int) *memory.Store {
	s := memory.New()
	s.PutProduct(domain.ProductSnapshot{ID: "A", Name: "Product A", UnitPrice: decimal.RequireFromString("10.00"), AvailableStock: stockA})
	s.PutProduct(domain.ProductSnapshot{ID: "B", Name: "Product B", UnitPrice: decimal.RequireFromString("8.00"), AvailableStock: stockB})
	return s
}

func newService(catalog application.CatalogReader, store application.Store, mutate ...func(*application.Config)) *application.Service {
	cfg := application.DefaultConfig()
	cfg.CallTimeout = time.Second
	for _, m := range mutate {
		m(&cfg)
	}
	return application.NewService(discardLogger(), identities, catalog, store, cfg)
}

func sequential(c *application.Config) { c.WriteMode = application.WriteSequential }

func readThenWrite(c *application.Config) { c.StockPolicy = application.StockReadThenWrite }

func cart(lines ...domain.CartLine) domain.PlacementRequest {
	return domain.PlacementRequest{
		Items:           lines,
		ShippingAddress: json.RawMessage(`{"street":"1 Main St","city":"Springfield","zip":"12345"}`),
		PaymentMethod:   "card",
		Email:           "buyer@example.com",
		Phone:           "+15550100",
	}
}

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// faultyStore injects failures in front of a memory store. A hook returning
// nil lets the call through.
type faultyStore struct {
	*memory.Store
	insertOrder func(ctx context.Context, o domain.Order) error
	insertItems func(ctx context.Context, items []domain.LineItem) error
	decrement   func(ctx context.Context, productID string, quantity int) error
	record      func(ctx context.Context, ev domain.Event) error
}

func (f *faultyStore) InsertOrder(ctx context.Context, o domain.Order) error {
	if f.insertOrder != nil {
		if err := f.insertOrder(ctx, o); err != nil {
			return err
		}
	}
	return f.Store.InsertOrder(ctx, o)
}

func (f *faultyStore) InsertLineItems(ctx context.Context, items []domain.LineItem) error {
	if f.insertItems != nil {
		if err := f.insertItems(ctx, items); err != nil {
			return err
		}
	}
	return f.Store.InsertLineItems(ctx, items)
}

func (f *faultyStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if f.decrement != nil {
		if err := f.decrement(ctx, productID, quantity); err != nil {
			return err
		}
	}
	return f.Store.DecrementStock(ctx, productID, quantity)
}

func (f *faultyStore) RecordEvent(ctx context.Context, ev domain.Event) error {
	if f.record != nil {
		if err := f.record(ctx, ev); err != nil {
			return err
		}
	}
	return f.Store.RecordEvent(ctx, ev)
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, w application.OrderWriter) error) error {
	return f.Store.WithinTx(ctx, func(ctx context.Context, _ application.OrderWriter) error {
		return fn(ctx, f)
	})
}

// countingCatalog counts reads before delegating.
type countingCatalog struct {
	application.CatalogReader
	calls atomic.Int64
}

func (c *countingCatalog) GetProduct(ctx context.Context, id string) (domain.ProductSnapshot, error) {
	c.calls.Add(1)
	return c.CatalogReader.GetProduct(ctx, id)
}

type catalogFunc func(ctx context.Context, id string) (domain.ProductSnapshot, error)

func (f catalogFunc) GetProduct(ctx context.Context, id string) (domain.ProductSnapshot, error) {
	return f(ctx, id)
}

// barrierCatalog holds every read until parties readers have arrived, so
// concurrent placements all validate before any of them writes.
type barrierCatalog struct {
	application.CatalogReader
	mu      sync.Mutex
	parties int
	arrived int
	release chan struct{}
}

func newBarrierCatalog(inner application.CatalogReader, parties int) *barrierCatalog {
	return &barrierCatalog{CatalogReader: inner, parties: parties, release: make(chan struct{})}
}

func (b *barrierCatalog) GetProduct(ctx context.Context, id string) (domain.ProductSnapshot, error) {
	p, err := b.CatalogReader.GetProduct(ctx, id)
	if err != nil {
		return p, err
	}
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
		return p, nil
	case <-ctx.Done():
		return domain.ProductSnapshot{}, ctx.Err()
	}
}

func requireKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}
